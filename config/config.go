// Package config holds the immutable run configuration of the extraction
// engine. A Config is built once (Default, Load or Parse), validated, and
// then passed by value to every component.
package config

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/recording"
	"gopkg.in/yaml.v3"
)

// Aperiodic fit methods
const (
	AperiodicRobust = "robust"
	AperiodicLogLog = "loglog"
	AperiodicNone   = "none"
)

// Connectivity estimator methods
const (
	ConnectivitySegmented = "segmented"
	ConnectivityNone      = "none"
)

// Aggregation modes
const (
	AggregateWindow    = "window"
	AggregateRecording = "recording"
)

// Config is the full set of knobs for one run
type Config struct {
	SampleRate float64  `yaml:"sample_rate" json:"sample_rate"`
	Channels   []string `yaml:"channels" json:"channels"`

	// LowpassHz is the cutoff applied by the upstream filter. Bands above it
	// are rejected. Zero disables the check.
	LowpassHz float64 `yaml:"lowpass_hz" json:"lowpass_hz"`

	// Events maps condition label -> event code
	Events map[string]int `yaml:"events" json:"events"`
	Bands  []bands.Band   `yaml:"bands" json:"bands"`

	Epoch        EpochConfig        `yaml:"epoch" json:"epoch"`
	Spectral     SpectralConfig     `yaml:"spectral" json:"spectral"`
	Nonlinear    NonlinearConfig    `yaml:"nonlinear" json:"nonlinear"`
	Connectivity ConnectivityConfig `yaml:"connectivity" json:"connectivity"`
	Aggregate    AggregateConfig    `yaml:"aggregate" json:"aggregate"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

type EpochConfig struct {
	WindowSec         float64 `yaml:"window_sec" json:"window_sec"`
	OverlapSec        float64 `yaml:"overlap_sec" json:"overlap_sec"`
	RejectThresholdUV float64 `yaml:"reject_threshold_uv" json:"reject_threshold_uv"`
	MinWindows        int     `yaml:"min_windows" json:"min_windows"`
}

type SpectralConfig struct {
	WelchWindowSec  float64    `yaml:"welch_window_sec" json:"welch_window_sec"`
	AperiodicRange  [2]float64 `yaml:"aperiodic_range_hz" json:"aperiodic_range_hz"` // [lo, hi] Hz
	AperiodicMethod string     `yaml:"aperiodic_method" json:"aperiodic_method"`     // "robust", "loglog", "none"
}

type NonlinearConfig struct {
	SampEnOrder int     `yaml:"sampen_order" json:"sampen_order"`
	SampEnRatio float64 `yaml:"sampen_ratio" json:"sampen_ratio"`
	HiguchiKmax int     `yaml:"higuchi_kmax" json:"higuchi_kmax"`

	BurstBand        string  `yaml:"burst_band" json:"burst_band"`
	BurstThresholdSD float64 `yaml:"burst_threshold_sd" json:"burst_threshold_sd"`

	PowerVarWindowSec    float64 `yaml:"power_var_window_sec" json:"power_var_window_sec"`
	PowerVarOverlapRatio float64 `yaml:"power_var_overlap_ratio" json:"power_var_overlap_ratio"`
}

type ConnectivityConfig struct {
	WindowSec float64 `yaml:"window_sec" json:"window_sec"`
	Method    string  `yaml:"method" json:"method"` // "segmented", "none"
}

type AggregateConfig struct {
	Mode string `yaml:"mode" json:"mode"` // "window", "recording"

	// Workers bounds concurrent recordings in a batch. 0 means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`

	// WindowWorkers bounds concurrent windows inside one recording.
	// 0 or 1 extracts sequentially.
	WindowWorkers int `yaml:"window_workers" json:"window_workers"`
}

// Default returns the two-channel frontal setup recorded at 250 Hz
func Default() Config {
	return Config{
		SampleRate: 250,
		Channels:   []string{"Fp1", "Fp2"},
		LowpassHz:  40,
		Events: map[string]int{
			"church": 1,
			"market": 2,
		},
		Bands: bands.Default().Bands(),
		Epoch: EpochConfig{
			WindowSec:         5.0,
			OverlapSec:        0.0,
			RejectThresholdUV: 100.0,
			MinWindows:        3,
		},
		Spectral: SpectralConfig{
			WelchWindowSec:  2.0,
			AperiodicRange:  [2]float64{1.0, 30.0},
			AperiodicMethod: AperiodicRobust,
		},
		Nonlinear: NonlinearConfig{
			SampEnOrder:          2,
			SampEnRatio:          0.2,
			HiguchiKmax:          10,
			BurstBand:            "alpha",
			BurstThresholdSD:     1.0,
			PowerVarWindowSec:    1.0,
			PowerVarOverlapRatio: 0.5,
		},
		Connectivity: ConnectivityConfig{
			WindowSec: 2.0,
			Method:    ConnectivitySegmented,
		},
		Aggregate: AggregateConfig{
			Mode:    AggregateWindow,
			Workers: 0,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file on top of Default
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. Fields absent from the document
// keep their default values; an events or bands section replaces the
// default one entirely.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	defaultEvents := cfg.Events
	cfg.Events = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid yaml: %w", err)
	}

	if cfg.Events == nil {
		cfg.Events = defaultEvents
	}
	return cfg, nil
}

// Nyquist returns half the sample rate
func (c Config) Nyquist() float64 {
	return c.SampleRate / 2
}

// Registry builds the band registry described by Bands
func (c Config) Registry() (*bands.Registry, error) {
	return bands.New(c.Bands...)
}

// EventTable builds the code -> label table described by Events
func (c Config) EventTable() (recording.EventTable, error) {
	return recording.NewEventTable(c.Events)
}
