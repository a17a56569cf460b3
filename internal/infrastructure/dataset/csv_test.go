package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"driftwatch/internal/domain"
)

func rawRow(station, name, lat, lon, alt, date, tm string) string {
	cols := []string{station, name, lat, lon, alt, date}
	for i := 6; i < 16; i++ {
		cols = append(cols, "x")
	}
	cols = append(cols, tm, "9") // col 16 = TM, col 17 = quality flag
	return strings.Join(cols, ";")
}

func TestCleanClimate(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"NUM_POSTE;NOM_USUEL;LAT;LON;ALTI;AAAAMMJJ;RR;QRR;TN;QTN;TX;QTX;c12;c13;c14;c15;TM;QTM",
		rawRow("64024001", "PAU", "43.3", "-0.4", "188", "20250101", "4.5"),
		rawRow("64024001", "PAU", "43.3", "-0.4", "188", "20250102", ""),
		"64024001;PAU;43.3", // truncated row
		rawRow("64024001", "PAU", "43.3", "-0.4", "188", "20250103", "6.1"),
	}, "\n")

	var out bytes.Buffer
	removed, err := CleanClimate(strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("CleanClimate returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed rows, got %d", removed)
	}

	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}

	want := [][]string{
		{"NUM_POSTE", "NOM_USUEL", "LAT", "LON", "ALTI", "AAAAMMJJ", "TM"},
		{"64024001", "PAU", "43.3", "-0.4", "188", "20250101", "4.5"},
		{"64024001", "PAU", "43.3", "-0.4", "188", "20250103", "6.1"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func cleanRow(station, date, tm string) []string {
	return []string{station, "PAU", "43.3", "-0.4", "188", date, tm}
}

func TestBuildLagWindows(t *testing.T) {
	t.Parallel()

	var input bytes.Buffer
	w := csv.NewWriter(&input)
	rows := [][]string{
		{"NUM_POSTE", "NOM_USUEL", "LAT", "LON", "ALTI", "AAAAMMJJ", "TM"},
		cleanRow("A", "20250101", "1.0"),
		cleanRow("A", "20250102", "2.0"),
		cleanRow("A", "20250103", "3.0"),
		cleanRow("A", "20250104", "4.0"),
		cleanRow("A", "20250105", "5.0"),
		cleanRow("A", "20250106", "6.0"),
		cleanRow("B", "20250101", "9.0"), // station change resets the window
		cleanRow("B", "20250102", "8.0"),
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			t.Fatalf("prepare input: %v", err)
		}
	}
	w.Flush()

	var out bytes.Buffer
	if err := BuildLagWindows(&input, &out); err != nil {
		t.Fatalf("BuildLagWindows returned error: %v", err)
	}

	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}

	want := [][]string{
		{"LAT", "LON", "ALTI", "AAAAMMJJ", "TMJ-4", "TMJ-3", "TMJ-2", "TMJ-1", "TM"},
		{"43.3", "-0.4", "188", "20250105", "1.0", "2.0", "3.0", "4.0", "5.0"},
		{"43.3", "-0.4", "188", "20250106", "2.0", "3.0", "4.0", "5.0", "6.0"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestReadColumn(t *testing.T) {
	t.Parallel()

	input := "NUM_POSTE,TM\nA,1.5\nA,\nA,2.5\n"
	values, err := ReadColumn(strings.NewReader(input), "TM")
	if err != nil {
		t.Fatalf("ReadColumn returned error: %v", err)
	}
	if diff := cmp.Diff([]float64{1.5, 2.5}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadColumn(strings.NewReader(input), "TX"); err == nil {
		t.Fatal("expected error for missing column")
	}
	if _, err := ReadColumn(strings.NewReader("TM\nnot-a-number\n"), "TM"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestFileSourceFetchPairs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	refPath := filepath.Join(dir, "reference.csv")
	curPath := filepath.Join(dir, "current.csv")

	if err := os.WriteFile(refPath, []byte("TM\n1\n2\n3\n"), 0o644); err != nil {
		t.Fatalf("write reference: %v", err)
	}
	if err := os.WriteFile(curPath, []byte("TM\n4\n5\n"), 0o644); err != nil {
		t.Fatalf("write current: %v", err)
	}

	source := NewFileSource(refPath, curPath)
	pairs, err := source.FetchPairs(context.Background(), []domain.Feature{
		{Name: "daily mean temperature (C)", Column: "TM"},
	})
	if err != nil {
		t.Fatalf("FetchPairs returned error: %v", err)
	}

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, pairs[0].Reference); diff != "" {
		t.Fatalf("reference mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 5}, pairs[0].Current); diff != "" {
		t.Fatalf("current mismatch (-want +got):\n%s", diff)
	}
}
