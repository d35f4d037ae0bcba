// Package epoch slices a cleaned recording into fixed-length labelled
// windows and rejects windows carrying amplitude artifacts.
package epoch

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/logging"
	"github.com/RyanBlaney/sonido-kpi/recording"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrMalformedMarkers reports a marker sequence that is not strictly
	// increasing or leaves the recording. It points at an ingestion bug and
	// is not a skip.
	ErrMalformedMarkers = errors.New("malformed event markers")

	// ErrNoEvents is returned for a recording without event markers
	ErrNoEvents = errors.New("no event markers")

	// ErrUnknownEvent is returned when the first marker's code is not in the
	// event table
	ErrUnknownEvent = errors.New("unknown event code")

	// ErrNotViable is returned when fewer windows than the configured
	// minimum survive rejection
	ErrNotViable = errors.New("too few clean windows")
)

// IsSkip reports whether err is a recoverable per-recording outcome
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoEvents) || errors.Is(err, ErrUnknownEvent) || errors.Is(err, ErrNotViable)
}

// Window is one analysis epoch. Data aliases the recording's rows and must
// not be modified.
type Window struct {
	ID    int         `json:"id"` // position among all generated windows
	Start int         `json:"start"`
	Label string      `json:"label"`
	Code  int         `json:"code"`
	Data  [][]float64 `json:"-"`
}

// Len returns the window length in samples
func (w *Window) Len() int {
	if len(w.Data) == 0 {
		return 0
	}
	return len(w.Data[0])
}

// Result is the outcome of segmenting one recording. On skips Windows is
// empty but the counts are still filled in.
type Result struct {
	Label    string    `json:"label"`
	Code     int       `json:"code"`
	Windows  []*Window `json:"windows"`
	Total    int       `json:"total"`    // windows generated before rejection
	Rejected int       `json:"rejected"` // windows dropped by the verdict
}

// Segmenter cuts recordings into windows
type Segmenter struct {
	windowSamples int
	strideSamples int
	thresholdUV   float64
	minWindows    int
	events        recording.EventTable
	logger        logging.Logger
}

// NewSegmenter creates a segmenter for a validated configuration
func NewSegmenter(cfg config.Config, events recording.EventTable) *Segmenter {
	return &Segmenter{
		windowSamples: int(math.Round(cfg.Epoch.WindowSec * cfg.SampleRate)),
		strideSamples: int(math.Round((cfg.Epoch.WindowSec - cfg.Epoch.OverlapSec) * cfg.SampleRate)),
		thresholdUV:   cfg.Epoch.RejectThresholdUV,
		minWindows:    cfg.Epoch.MinWindows,
		events:        events,
		logger: logging.WithFields(logging.Fields{
			"component": "epoch_segmenter",
		}),
	}
}

// WithLogger routes the segmenter's lines through logger
func (s *Segmenter) WithLogger(logger logging.Logger) *Segmenter {
	s.logger = logger.WithFields(logging.Fields{
		"component": "epoch_segmenter",
	})
	return s
}

// WindowSamples returns the window length in samples
func (s *Segmenter) WindowSamples() int {
	return s.windowSamples
}

// Starts returns the start offsets of every window that fits entirely in n
// samples
func (s *Segmenter) Starts(n int) []int {
	if s.windowSamples <= 0 || s.strideSamples <= 0 {
		return nil
	}

	var starts []int
	for start := 0; start+s.windowSamples <= n; start += s.strideSamples {
		starts = append(starts, start)
	}
	return starts
}

// Segment labels and windows a recording. Every window carries the label
// of the recording's first marker.
func (s *Segmenter) Segment(rec *recording.Recording) (*Result, error) {
	if rec == nil {
		return nil, fmt.Errorf("recording cannot be nil")
	}

	logger := s.logger.WithFields(logging.Fields{
		"function":  "Segment",
		"recording": rec.ID,
	})

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := rec.ValidateMarkers(); err != nil {
		return nil, fmt.Errorf("recording %q: %w: %v", rec.ID, ErrMalformedMarkers, err)
	}

	result := &Result{}
	if len(rec.Markers) == 0 {
		return result, fmt.Errorf("recording %q: %w", rec.ID, ErrNoEvents)
	}

	result.Code = rec.Markers[0].Code
	label, ok := s.events.Label(result.Code)
	if !ok {
		return result, fmt.Errorf("recording %q: %w %d", rec.ID, ErrUnknownEvent, result.Code)
	}
	result.Label = label

	threshold := rec.Unit.MicrovoltsToNative(s.thresholdUV)
	starts := s.Starts(rec.Len())
	result.Total = len(starts)

	for id, start := range starts {
		data := make([][]float64, len(rec.Data))
		for c, row := range rec.Data {
			data[c] = row[start : start+s.windowSamples : start+s.windowSamples]
		}

		if reason, rejected := verdict(data, threshold); rejected {
			result.Rejected++
			logger.Debug("Window rejected", logging.Fields{
				"window": id,
				"reason": reason,
			})
			continue
		}

		result.Windows = append(result.Windows, &Window{
			ID:    id,
			Start: start,
			Label: label,
			Code:  result.Code,
			Data:  data,
		})
	}

	if len(result.Windows) < s.minWindows {
		kept := len(result.Windows)
		result.Windows = nil
		return result, fmt.Errorf("recording %q: %w: %d of %d windows kept, need %d",
			rec.ID, ErrNotViable, kept, result.Total, s.minWindows)
	}

	logger.Debug("Segmentation complete", logging.Fields{
		"total":    result.Total,
		"rejected": result.Rejected,
		"label":    label,
	})

	return result, nil
}

// verdict rejects a window when any channel has a non-finite sample or a
// peak-to-peak amplitude above threshold
func verdict(data [][]float64, threshold float64) (string, bool) {
	for c, row := range data {
		if floats.HasNaN(row) {
			return fmt.Sprintf("channel %d has NaN samples", c), true
		}
		hi, lo := floats.Max(row), floats.Min(row)
		if math.IsInf(hi, 0) || math.IsInf(lo, 0) {
			return fmt.Sprintf("channel %d has infinite samples", c), true
		}
		if hi-lo > threshold {
			return fmt.Sprintf("channel %d peak-to-peak %.3g above %.3g", c, hi-lo, threshold), true
		}
	}
	return "", false
}
