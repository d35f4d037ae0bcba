package kpi

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
)

// MetadataColumns precede the feature columns in CSV output
var MetadataColumns = []string{"recording", "window_id", "label", "code", "window_count"}

// RecordingWindowID is the window id of a row averaged over a whole
// recording
const RecordingWindowID = -1

// Row is one KPI row: window metadata and one value per feature column
type Row struct {
	Recording   string    `json:"recording"`
	WindowID    int       `json:"window_id"`
	Label       string    `json:"label"`
	Code        int       `json:"code"`
	WindowCount int       `json:"window_count"` // windows folded into the row
	Values      []float64 `json:"values"`
}

// Table is the engine's output: rows sharing one column set
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates an empty table with the given feature columns
func NewTable(columns []string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds rows, rejecting any whose width differs from the columns
func (t *Table) Append(rows ...Row) error {
	for _, r := range rows {
		if len(r.Values) != len(t.Columns) {
			return fmt.Errorf("row for %s window %d has %d values, table has %d columns",
				r.Recording, r.WindowID, len(r.Values), len(t.Columns))
		}
	}
	t.Rows = append(t.Rows, rows...)
	return nil
}

// Concat appends the rows of other, which must have identical columns
func (t *Table) Concat(other *Table) error {
	if other == nil {
		return nil
	}
	if !slices.Equal(t.Columns, other.Columns) {
		return fmt.Errorf("column sets differ: %d vs %d columns", len(t.Columns), len(other.Columns))
	}
	return t.Append(other.Rows...)
}

// Column returns every row's value of a feature column
func (t *Table) Column(name string) ([]float64, bool) {
	idx := slices.Index(t.Columns, name)
	if idx < 0 {
		return nil, false
	}

	values := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		values[i] = r.Values[idx]
	}
	return values, true
}

// NaNRates returns the fraction of NaN cells per feature column. An empty
// table reports no columns.
func (t *Table) NaNRates() map[string]float64 {
	rates := make(map[string]float64, len(t.Columns))
	if len(t.Rows) == 0 {
		return rates
	}

	for c, name := range t.Columns {
		missing := 0
		for _, r := range t.Rows {
			if math.IsNaN(r.Values[c]) {
				missing++
			}
		}
		rates[name] = float64(missing) / float64(len(t.Rows))
	}
	return rates
}

// WriteCSV writes a header of metadata then feature columns followed by
// one record per row. NaN cells are written as NaN.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append(slices.Clone(MetadataColumns), t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(header))
	for _, r := range t.Rows {
		record[0] = r.Recording
		record[1] = strconv.Itoa(r.WindowID)
		record[2] = r.Label
		record[3] = strconv.Itoa(r.Code)
		record[4] = strconv.Itoa(r.WindowCount)
		for i, v := range r.Values {
			record[len(MetadataColumns)+i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
