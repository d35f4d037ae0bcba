package kpi

import "math"

// averageRows folds the rows of one recording into a single row by a
// NaN-excluding mean per column. A column that is NaN in every row stays
// NaN.
func averageRows(rows []Row, width int) Row {
	out := Row{
		WindowID:    RecordingWindowID,
		WindowCount: len(rows),
		Values:      make([]float64, width),
	}
	if len(rows) > 0 {
		out.Recording = rows[0].Recording
		out.Label = rows[0].Label
		out.Code = rows[0].Code
	}

	for c := range width {
		sum, n := 0.0, 0
		for _, r := range rows {
			if v := r.Values[c]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			out.Values[c] = math.NaN()
			continue
		}
		out.Values[c] = sum / float64(n)
	}
	return out
}
