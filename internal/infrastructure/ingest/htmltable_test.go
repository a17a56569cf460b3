package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"driftwatch/internal/domain"
)

const samplePage = `
<html><body>
<table>
  <thead><tr><th>Date</th><th>TM</th><th>RR</th></tr></thead>
  <tbody>
    <tr><td>2026-01-01</td><td>4,5</td><td>0.0</td></tr>
    <tr><td>2026-01-02</td><td>6.1</td><td>2.4</td></tr>
    <tr><td>2026-01-03</td><td>n/a</td><td>1.0</td></tr>
    <tr><td>2026-01-04</td><td>-1.2</td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestTableClientColumn(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	client := NewTableClient(server.Client())
	values, err := client.Column(context.Background(), server.URL, "TM")
	if err != nil {
		t.Fatalf("Column returned error: %v", err)
	}

	// Decimal commas are normalized, non-numeric cells are skipped.
	if diff := cmp.Diff([]float64{4.5, 6.1, -1.2}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestTableClientMissingColumn(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	client := NewTableClient(server.Client())
	if _, err := client.Column(context.Background(), server.URL, "TX"); err == nil {
		t.Fatal("expected error for missing column")
	}
}

func TestTableSourceFetchPairs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	source := NewTableSource(NewTableClient(server.Client()), server.URL+"/reference", server.URL+"/current")
	pairs, err := source.FetchPairs(context.Background(), []domain.Feature{
		{Name: "daily mean temperature (C)", Column: "TM"},
	})
	if err != nil {
		t.Fatalf("FetchPairs returned error: %v", err)
	}
	if len(pairs) != 1 || len(pairs[0].Reference) != 3 || len(pairs[0].Current) != 3 {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	source := NewTableSource(nil, "http://example.org/a", "http://example.org/b")
	registry.Register("html", source)

	got, err := registry.Resolve("html")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != source {
		t.Fatal("Resolve returned a different source")
	}

	if _, err := registry.Resolve("csv"); err == nil {
		t.Fatal("expected error for unregistered source")
	}
}
