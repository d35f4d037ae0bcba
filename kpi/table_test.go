package kpi_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/RyanBlaney/sonido-kpi/kpi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *kpi.Table {
	t.Helper()
	table := kpi.NewTable([]string{"a", "b"})
	require.NoError(t, table.Append(
		kpi.Row{Recording: "r1", WindowID: 0, Label: "church", Code: 1, WindowCount: 1, Values: []float64{1.5, math.NaN()}},
		kpi.Row{Recording: "r1", WindowID: 2, Label: "church", Code: 1, WindowCount: 1, Values: []float64{-2, 4}},
	))
	return table
}

func TestTableAppendAndConcat(t *testing.T) {
	table := sampleTable(t)
	assert.Equal(t, 2, table.Len())

	err := table.Append(kpi.Row{Values: []float64{1}})
	assert.Error(t, err)
	assert.Equal(t, 2, table.Len(), "rejected rows are not added")

	assert.Error(t, table.Concat(kpi.NewTable([]string{"b", "a"})))
	assert.NoError(t, table.Concat(nil))
	require.NoError(t, table.Concat(sampleTable(t)))
	assert.Equal(t, 4, table.Len())
}

func TestTableColumnAndNaNRates(t *testing.T) {
	table := sampleTable(t)

	a, ok := table.Column("a")
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, -2}, a)
	_, ok = table.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]float64{"a": 0, "b": 0.5}, table.NaNRates())
	assert.Empty(t, kpi.NewTable([]string{"a"}).NaNRates())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable(t).WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"recording", "window_id", "label", "code", "window_count", "a", "b"}, records[0])
	assert.Equal(t, []string{"r1", "0", "church", "1", "1", "1.5", "NaN"}, records[1])
	assert.Equal(t, []string{"r1", "2", "church", "1", "1", "-2", "4"}, records[2])
}

func TestRecordingModeKeepsAllNaNColumns(t *testing.T) {
	e := newEngine(t,
		func(c *config.Config) { c.Aggregate.Mode = config.AggregateRecording },
		kpi.WithConnectivity(features.Unavailable(errors.New("no estimator"))),
	)

	table, err := e.ProcessRecording(synthetic("s06", 20, 16))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	plv := column(t, table, "conn_plv_alpha")
	assert.True(t, math.IsNaN(plv[0]))
	coh := column(t, table, "conn_coh_alpha")
	assert.False(t, math.IsNaN(coh[0]))
}
