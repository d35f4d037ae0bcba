// Package metrics exports the extraction engine's degradation counters
// (skipped recordings, rejected windows, failed features) to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recording outcomes
const (
	OutcomeProcessed    = "processed"
	OutcomeNoEvents     = "no_events"
	OutcomeUnknownEvent = "unknown_event"
	OutcomeNotViable    = "not_viable"
	OutcomeFailed       = "failed"
)

// Window outcomes
const (
	WindowKept     = "kept"
	WindowRejected = "rejected"
	WindowDropped  = "dropped"
)

// Recorder groups the engine's collectors. The zero value is not usable;
// build one with New or NewNop. A nil *Recorder is a no-op.
type Recorder struct {
	recordings      *prometheus.CounterVec
	windows         *prometheus.CounterVec
	featureFailures *prometheus.CounterVec
	extraction      prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests and one-off runs want.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		recordings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kpi_recordings_total",
				Help: "Total number of recordings handled, by outcome",
			},
			[]string{"outcome"},
		),

		windows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kpi_windows_total",
				Help: "Total number of analysis windows, by outcome",
			},
			[]string{"outcome"},
		),

		featureFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kpi_feature_failures_total",
				Help: "Total number of features substituted with NaN, by family",
			},
			[]string{"family"},
		),

		extraction: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kpi_window_extraction_seconds",
				Help:    "Feature extraction latency per window in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(r.recordings, r.windows, r.featureFailures, r.extraction)
	}
	return r
}

// NewNop returns a Recorder whose collectors are never registered
func NewNop() *Recorder {
	return New(nil)
}

// RecordingOutcome increments the recordings counter for outcome
func (r *Recorder) RecordingOutcome(outcome string) {
	if r == nil {
		return
	}
	r.recordings.WithLabelValues(outcome).Inc()
}

// Windows adds n windows with the given outcome
func (r *Recorder) Windows(outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.windows.WithLabelValues(outcome).Add(float64(n))
}

// FeatureFailures adds n NaN-substituted features for family
func (r *Recorder) FeatureFailures(family string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.featureFailures.WithLabelValues(family).Add(float64(n))
}

// ObserveExtraction records how long one window took
func (r *Recorder) ObserveExtraction(d time.Duration) {
	if r == nil {
		return
	}
	r.extraction.Observe(d.Seconds())
}

// RecordingsCollector exposes the recordings counter for inspection
func (r *Recorder) RecordingsCollector() *prometheus.CounterVec { return r.recordings }

// WindowsCollector exposes the windows counter for inspection
func (r *Recorder) WindowsCollector() *prometheus.CounterVec { return r.windows }

// FeatureFailuresCollector exposes the feature failure counter for inspection
func (r *Recorder) FeatureFailuresCollector() *prometheus.CounterVec { return r.featureFailures }
