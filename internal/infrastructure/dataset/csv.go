// Package dataset prepares climate CSV exports for monitoring: it trims the
// raw semicolon-separated Météo-France dump down to the daily-mean
// temperature rows, derives lag-window training rows, and extracts numeric
// columns as feature samples.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const (
	// Raw export layout: columns 0..5 carry station and date identifiers,
	// column 16 is TM, the daily mean temperature.
	rawKeepColumns = 6
	rawTMColumn    = 16

	// Lag windows look back four days per station.
	lagDepth = 4
)

// CleanClimate reads the raw semicolon-separated export and writes a
// comma-separated file keeping the identifier columns plus TM. Rows with a
// missing TM value are dropped; the number of dropped rows is returned.
func CleanClimate(r io.Reader, w io.Writer) (removed int, err error) {
	in := csv.NewReader(r)
	in.Comma = ';'
	in.FieldsPerRecord = -1
	out := csv.NewWriter(w)

	header, err := in.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) < rawKeepColumns {
		return 0, fmt.Errorf("header has %d columns, want at least %d", len(header), rawKeepColumns)
	}
	if err := out.Write(append(header[:rawKeepColumns:rawKeepColumns], "TM")); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for {
		row, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("read row: %w", err)
		}

		if len(row) <= rawTMColumn+1 || row[rawTMColumn] == "" {
			removed++
			continue
		}

		if err := out.Write(append(row[:rawKeepColumns:rawKeepColumns], row[rawTMColumn])); err != nil {
			return removed, fmt.Errorf("write row: %w", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return removed, fmt.Errorf("flush output: %w", err)
	}
	return removed, nil
}

// BuildLagWindows turns the cleaned file into supervised rows: for every day
// with four preceding TM observations at the same station, it emits the date
// columns, the four lagged temperatures (TMJ-4..TMJ-1) and the current TM.
// The window resets whenever the station identifier changes.
func BuildLagWindows(r io.Reader, w io.Writer) error {
	in := csv.NewReader(r)
	in.FieldsPerRecord = -1
	out := csv.NewWriter(w)

	header, err := in.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) < rawKeepColumns+1 {
		return fmt.Errorf("header has %d columns, want %d", len(header), rawKeepColumns+1)
	}

	outHeader := append([]string{}, header[2:rawKeepColumns]...)
	outHeader = append(outHeader, "TMJ-4", "TMJ-3", "TMJ-2", "TMJ-1", "TM")
	if err := out.Write(outHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var (
		station string
		window  []string
	)
	for {
		row, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if len(row) < rawKeepColumns+1 {
			return fmt.Errorf("row has %d columns, want %d", len(row), rawKeepColumns+1)
		}

		tm := row[rawKeepColumns]
		switch {
		case row[0] != station:
			station = row[0]
			window = []string{tm}
		case len(window) == lagDepth:
			record := append([]string{}, row[2:rawKeepColumns]...)
			record = append(record, window...)
			record = append(record, tm)
			if err := out.Write(record); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
			window = append(window[1:], tm)
		default:
			window = append(window, tm)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// ReadColumn extracts a named numeric column from a comma-separated file.
func ReadColumn(r io.Reader, column string) ([]float64, error) {
	in := csv.NewReader(r)
	in.FieldsPerRecord = -1

	header, err := in.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if name == column {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("column %q not found", column)
	}

	var values []float64
	line := 1
	for {
		row, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %q: %w", line, row[idx], err)
		}
		values = append(values, v)
	}
	return values, nil
}
