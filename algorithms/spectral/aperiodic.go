package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
)

// AperiodicParams describes the 1/f background of a power spectrum in the
// model log10 P(f) = Offset - Exponent·log10 f.
type AperiodicParams struct {
	Offset   float64 `json:"offset"`
	Exponent float64 `json:"exponent"`
	Bins     int     `json:"bins"` // bins used by the final fit
}

// AperiodicFit estimates the aperiodic component over [low, high] Hz.
// Bins with non-positive power or frequency are skipped.
type AperiodicFit struct {
	low    float64
	high   float64
	robust bool
}

// NewAperiodicFit creates a fitter. With robust set, the straight log-log
// fit is repeated on the bins whose residual is at or below the median
// residual, which discards oscillatory peaks riding on the background.
func NewAperiodicFit(low, high float64, robust bool) *AperiodicFit {
	return &AperiodicFit{low: low, high: high, robust: robust}
}

// Compute fits the model to a one-sided density
func (af *AperiodicFit) Compute(freqs, power []float64) (AperiodicParams, error) {
	var logF, logP []float64
	for i, f := range freqs {
		if f < af.low || f > af.high || f <= 0 || !(power[i] > 0) || math.IsInf(power[i], 0) {
			continue
		}
		logF = append(logF, math.Log10(f))
		logP = append(logP, math.Log10(power[i]))
	}

	if len(logF) < 2 {
		return AperiodicParams{}, fmt.Errorf("only %d usable bins in [%.2f, %.2f] Hz", len(logF), af.low, af.high)
	}

	slope, intercept, _, err := common.LinRegression(logF, logP)
	if err != nil {
		return AperiodicParams{}, fmt.Errorf("log-log fit failed: %w", err)
	}
	params := AperiodicParams{Offset: intercept, Exponent: -slope, Bins: len(logF)}

	if !af.robust {
		return params, nil
	}

	residuals := make([]float64, len(logF))
	for i := range logF {
		residuals[i] = logP[i] - (intercept + slope*logF[i])
	}
	threshold := common.Median(residuals)

	var keepF, keepP []float64
	for i, r := range residuals {
		if r <= threshold {
			keepF = append(keepF, logF[i])
			keepP = append(keepP, logP[i])
		}
	}
	if len(keepF) < 2 {
		return params, nil
	}

	slope, intercept, _, err = common.LinRegression(keepF, keepP)
	if err != nil {
		return params, nil
	}
	return AperiodicParams{Offset: intercept, Exponent: -slope, Bins: len(keepF)}, nil
}
