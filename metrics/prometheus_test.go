package metrics_test

import (
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-kpi/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	rec.RecordingOutcome(metrics.OutcomeProcessed)
	rec.RecordingOutcome(metrics.OutcomeProcessed)
	rec.RecordingOutcome(metrics.OutcomeNotViable)
	rec.Windows(metrics.WindowKept, 12)
	rec.Windows(metrics.WindowRejected, 0)
	rec.FeatureFailures("nonlin", 3)
	rec.ObserveExtraction(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.RecordingsCollector().WithLabelValues(metrics.OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RecordingsCollector().WithLabelValues(metrics.OutcomeNotViable)))
	assert.Equal(t, 12.0, testutil.ToFloat64(rec.WindowsCollector().WithLabelValues(metrics.WindowKept)))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.FeatureFailuresCollector().WithLabelValues("nonlin")))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["kpi_recordings_total"])
	assert.True(t, names["kpi_window_extraction_seconds"])
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *metrics.Recorder
	assert.NotPanics(t, func() {
		rec.RecordingOutcome(metrics.OutcomeFailed)
		rec.Windows(metrics.WindowDropped, 1)
		rec.FeatureFailures("time", 1)
		rec.ObserveExtraction(time.Second)
	})
}

func TestNopRecorderDoesNotRegister(t *testing.T) {
	a := metrics.NewNop()
	b := metrics.NewNop()
	a.RecordingOutcome(metrics.OutcomeProcessed)
	b.RecordingOutcome(metrics.OutcomeProcessed)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RecordingsCollector().WithLabelValues(metrics.OutcomeProcessed)))
}
