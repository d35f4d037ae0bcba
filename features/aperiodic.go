package features

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-kpi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/logging"
)

// ErrEstimatorUnavailable is the reason recorded by null estimators
var ErrEstimatorUnavailable = errors.New("estimator unavailable")

// AperiodicEstimator fits the 1/f background of a power spectral density
type AperiodicEstimator interface {
	Fit(freqs, power []float64) (spectral.AperiodicParams, error)
	Name() string
}

type aperiodicFit struct {
	name string
	fit  *spectral.AperiodicFit
}

func (a *aperiodicFit) Fit(freqs, power []float64) (spectral.AperiodicParams, error) {
	return a.fit.Compute(freqs, power)
}

func (a *aperiodicFit) Name() string { return a.name }

type unavailableAperiodic struct{}

func (unavailableAperiodic) Fit([]float64, []float64) (spectral.AperiodicParams, error) {
	return spectral.AperiodicParams{}, fmt.Errorf("aperiodic %w", ErrEstimatorUnavailable)
}

func (unavailableAperiodic) Name() string { return config.AperiodicNone }

// NewAperiodicEstimator resolves the configured fitting method once. The
// choice is logged through logger.
func NewAperiodicEstimator(cfg config.SpectralConfig, logger logging.Logger) (AperiodicEstimator, error) {
	logger = logger.WithFields(logging.Fields{
		"component": "aperiodic_estimator",
		"function":  "NewAperiodicEstimator",
		"method":    cfg.AperiodicMethod,
	})

	low, high := cfg.AperiodicRange[0], cfg.AperiodicRange[1]

	switch cfg.AperiodicMethod {
	case config.AperiodicRobust:
		logger.Debug("Using peak-excluding log-log fit")
		return &aperiodicFit{name: config.AperiodicRobust, fit: spectral.NewAperiodicFit(low, high, true)}, nil

	case config.AperiodicLogLog:
		logger.Debug("Using plain log-log fit")
		return &aperiodicFit{name: config.AperiodicLogLog, fit: spectral.NewAperiodicFit(low, high, false)}, nil

	case config.AperiodicNone:
		logger.Debug("Aperiodic fitting disabled")
		return unavailableAperiodic{}, nil

	default:
		return nil, fmt.Errorf("unknown aperiodic method %q", cfg.AperiodicMethod)
	}
}
