package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-kpi/logging"
)

// ValidationError describes one rejected configuration field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Validate checks every rule and returns all violations joined together,
// or nil if the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		fail("sample_rate", "must be positive, got %v", c.SampleRate)
	}

	if len(c.Channels) == 0 {
		fail("channels", "at least one channel is required")
	}
	seen := make(map[string]bool, len(c.Channels))
	for _, ch := range c.Channels {
		name := strings.TrimSpace(ch)
		if name == "" {
			fail("channels", "empty channel name")
			continue
		}
		if seen[name] {
			fail("channels", "duplicate channel %q", name)
		}
		seen[name] = true
	}

	if c.LowpassHz < 0 {
		fail("lowpass_hz", "must not be negative, got %v", c.LowpassHz)
	}

	if len(c.Events) == 0 {
		fail("events", "at least one event code is required")
	} else if _, err := c.EventTable(); err != nil {
		fail("events", "%v", err)
	}

	registry, err := c.Registry()
	if err != nil {
		fail("bands", "%v", err)
	} else if c.SampleRate > 0 {
		if err := registry.Validate(c.SampleRate, c.LowpassHz); err != nil {
			fail("bands", "%v", err)
		}
	}

	e := c.Epoch
	if !(e.WindowSec > 0) {
		fail("epoch.window_sec", "must be positive, got %v", e.WindowSec)
	}
	if e.OverlapSec < 0 || e.OverlapSec >= e.WindowSec {
		fail("epoch.overlap_sec", "must satisfy 0 <= overlap < window (%v), got %v", e.WindowSec, e.OverlapSec)
	}
	if c.SampleRate > 0 && e.WindowSec > 0 && e.OverlapSec >= 0 &&
		math.Round((e.WindowSec-e.OverlapSec)*c.SampleRate) < 1 {
		fail("epoch.overlap_sec", "window stride is shorter than one sample")
	}
	if !(e.RejectThresholdUV > 0) {
		fail("epoch.reject_threshold_uv", "must be positive, got %v", e.RejectThresholdUV)
	}
	if e.MinWindows < 1 {
		fail("epoch.min_windows", "must be at least 1, got %d", e.MinWindows)
	}

	s := c.Spectral
	if !(s.WelchWindowSec > 0) {
		fail("spectral.welch_window_sec", "must be positive, got %v", s.WelchWindowSec)
	}
	lo, hi := s.AperiodicRange[0], s.AperiodicRange[1]
	if !(lo > 0) || lo >= hi || (c.SampleRate > 0 && hi > c.Nyquist()) {
		fail("spectral.aperiodic_range_hz", "must satisfy 0 < lo < hi <= Nyquist, got [%v, %v]", lo, hi)
	}
	switch s.AperiodicMethod {
	case AperiodicRobust, AperiodicLogLog, AperiodicNone:
	default:
		fail("spectral.aperiodic_method", "unknown method %q", s.AperiodicMethod)
	}

	n := c.Nonlinear
	if n.SampEnOrder < 1 {
		fail("nonlinear.sampen_order", "must be at least 1, got %d", n.SampEnOrder)
	}
	if !(n.SampEnRatio > 0) {
		fail("nonlinear.sampen_ratio", "must be positive, got %v", n.SampEnRatio)
	}
	if n.HiguchiKmax < 2 {
		fail("nonlinear.higuchi_kmax", "must be at least 2, got %d", n.HiguchiKmax)
	}
	if registry != nil {
		if _, ok := registry.Get(n.BurstBand); !ok {
			fail("nonlinear.burst_band", "band %q is not configured", n.BurstBand)
		}
	}
	if n.BurstThresholdSD < 0 {
		fail("nonlinear.burst_threshold_sd", "must not be negative, got %v", n.BurstThresholdSD)
	}
	if !(n.PowerVarWindowSec > 0) {
		fail("nonlinear.power_var_window_sec", "must be positive, got %v", n.PowerVarWindowSec)
	}
	if n.PowerVarOverlapRatio < 0 || n.PowerVarOverlapRatio >= 1 {
		fail("nonlinear.power_var_overlap_ratio", "must be in [0, 1), got %v", n.PowerVarOverlapRatio)
	}

	conn := c.Connectivity
	if !(conn.WindowSec > 0) {
		fail("connectivity.window_sec", "must be positive, got %v", conn.WindowSec)
	}
	switch conn.Method {
	case ConnectivitySegmented, ConnectivityNone:
	default:
		fail("connectivity.method", "unknown method %q", conn.Method)
	}

	a := c.Aggregate
	switch a.Mode {
	case AggregateWindow, AggregateRecording:
	default:
		fail("aggregate.mode", "unknown mode %q", a.Mode)
	}
	if a.Workers < 0 {
		fail("aggregate.workers", "must not be negative, got %d", a.Workers)
	}
	if a.WindowWorkers < 0 {
		fail("aggregate.window_workers", "must not be negative, got %d", a.WindowWorkers)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		fail("log_level", "%v", err)
	}

	return errors.Join(errs...)
}
