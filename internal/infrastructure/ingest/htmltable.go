// Package ingest pulls feature samples out of published data pages. Some
// climatology portals expose their series only as HTML tables; this adapter
// turns a named table column into a numeric sample.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

// TableClient fetches HTML pages and extracts numeric table columns.
type TableClient struct {
	client *http.Client
}

// NewTableClient wires an HTTP client; a nil client gets a sane default.
func NewTableClient(client *http.Client) *TableClient {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TableClient{client: client}
}

// Column downloads the page and returns the numeric values under the given
// table header. Cells that do not parse as numbers are skipped.
func (c *TableClient) Column(ctx context.Context, pageURL, column string) ([]float64, error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var (
		values []float64
		found  bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		idx := headerIndex(table, column)
		if idx == -1 {
			return true
		}
		found = true

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= idx {
				return
			}
			text := strings.TrimSpace(cells.Eq(idx).Text())
			if v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64); err == nil {
				values = append(values, v)
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with column %q on %s", column, pageURL)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("column %q on %s holds no numeric values", column, pageURL)
	}
	return values, nil
}

func (c *TableClient) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "driftwatch/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func headerIndex(table *goquery.Selection, column string) int {
	idx := -1
	table.Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(th.Text()), column) {
			idx = i
			return false
		}
		return true
	})
	return idx
}

// TableSource serves sample pairs from two data pages, one per period.
type TableSource struct {
	client       *TableClient
	referenceURL string
	currentURL   string
}

var _ ports.SampleSource = (*TableSource)(nil)

// NewTableSource points the source at the two period pages.
func NewTableSource(client *TableClient, referenceURL, currentURL string) *TableSource {
	if client == nil {
		client = NewTableClient(nil)
	}
	return &TableSource{client: client, referenceURL: referenceURL, currentURL: currentURL}
}

// FetchPairs extracts each feature's column from both pages.
func (s *TableSource) FetchPairs(ctx context.Context, features []domain.Feature) ([]domain.SamplePair, error) {
	pairs := make([]domain.SamplePair, 0, len(features))
	for _, feature := range features {
		reference, err := s.client.Column(ctx, s.referenceURL, feature.Column)
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", feature.Name, err)
		}
		current, err := s.client.Column(ctx, s.currentURL, feature.Column)
		if err != nil {
			return nil, fmt.Errorf("current %s: %w", feature.Name, err)
		}
		pairs = append(pairs, domain.SamplePair{
			Feature:   feature.Name,
			Reference: reference,
			Current:   current,
		})
	}
	return pairs, nil
}
