package stats

import (
	"fmt"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
	"gonum.org/v1/gonum/stat"
)

// Pearson computes the zero-lag Pearson correlation of two equal-length
// series. It fails when either series is constant.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("need at least 2 samples, got %d", len(x))
	}
	if common.PopVariance(x) == 0 || common.PopVariance(y) == 0 {
		return 0, fmt.Errorf("correlation undefined for a constant series")
	}

	return clampCorrelation(stat.Correlation(x, y, nil)), nil
}

// clampCorrelation removes rounding excursions beyond ±1
func clampCorrelation(correlation float64) float64 {
	if correlation > 1.0 {
		return 1.0
	}
	if correlation < -1.0 {
		return -1.0
	}
	return correlation
}
