// Package recording defines the read-only multi-channel signal the
// extraction engine consumes, along with its event markers.
package recording

import (
	"fmt"
	"math"
)

// Unit is the native amplitude unit of a Recording's samples
type Unit int

const (
	Volts Unit = iota
	Microvolts
)

func (u Unit) String() string {
	switch u {
	case Volts:
		return "V"
	case Microvolts:
		return "uV"
	default:
		return "unknown"
	}
}

// MicrovoltsToNative converts a threshold expressed in µV into this unit
func (u Unit) MicrovoltsToNative(uv float64) float64 {
	if u == Microvolts {
		return uv
	}
	return uv * 1e-6
}

// Marker is an event annotation: the sample index where Code becomes active
type Marker struct {
	Sample int `json:"sample"`
	Code   int `json:"code"`
}

// Recording holds cleaned signal channels only. Data is channel-major:
// Data[c][t] is sample t of Channels[c].
type Recording struct {
	ID         string      `json:"id"`
	SampleRate float64     `json:"sample_rate"`
	Channels   []string    `json:"channels"`
	Data       [][]float64 `json:"-"`
	Unit       Unit        `json:"unit"`
	Markers    []Marker    `json:"markers"`
}

// Len returns the number of samples per channel
func (r *Recording) Len() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

// Duration returns the recording length in seconds
func (r *Recording) Duration() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(r.Len()) / r.SampleRate
}

// Validate checks the sample matrix shape and sample rate
func (r *Recording) Validate() error {
	if r.SampleRate <= 0 || math.IsNaN(r.SampleRate) || math.IsInf(r.SampleRate, 0) {
		return fmt.Errorf("recording %q: invalid sample rate %v", r.ID, r.SampleRate)
	}
	if len(r.Channels) == 0 {
		return fmt.Errorf("recording %q: no channels", r.ID)
	}
	if len(r.Data) != len(r.Channels) {
		return fmt.Errorf("recording %q: %d data rows for %d channels", r.ID, len(r.Data), len(r.Channels))
	}

	n := len(r.Data[0])
	if n == 0 {
		return fmt.Errorf("recording %q: no samples", r.ID)
	}
	for i, row := range r.Data {
		if len(row) != n {
			return fmt.Errorf("recording %q: channel %q has %d samples, expected %d",
				r.ID, r.Channels[i], len(row), n)
		}
	}
	return nil
}

// ValidateMarkers checks that marker indices are non-negative, strictly
// increasing and inside the recording.
func (r *Recording) ValidateMarkers() error {
	n := r.Len()
	for i, m := range r.Markers {
		if m.Sample < 0 {
			return fmt.Errorf("marker %d: negative sample index %d", i, m.Sample)
		}
		if n > 0 && m.Sample >= n {
			return fmt.Errorf("marker %d: sample index %d beyond recording length %d", i, m.Sample, n)
		}
		if i > 0 && m.Sample <= r.Markers[i-1].Sample {
			return fmt.Errorf("marker %d: sample index %d not after previous index %d",
				i, m.Sample, r.Markers[i-1].Sample)
		}
	}
	return nil
}

// Channel returns the samples of the named channel
func (r *Recording) Channel(name string) ([]float64, bool) {
	for i, ch := range r.Channels {
		if ch == name {
			return r.Data[i], true
		}
	}
	return nil, false
}
