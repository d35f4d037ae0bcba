// Package complexity implements nonlinear descriptors of short
// physiological signals: entropies, fractal dimensions, Lempel-Ziv
// complexity and detrended fluctuation analysis.
//
// Every estimator returns an error instead of a non-finite value, so
// callers can tell an undefined measure (a constant signal, too few
// samples) from a legitimate result.
package complexity

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
)

// SampleEntropy implements the sample entropy of Richman & Moorman.
//
// References:
// - Richman, J.S., Moorman, J.R. (2000). "Physiological time-series analysis using approximate entropy and sample entropy"
//
// With N-m templates of length m, B counts template pairs whose Chebyshev
// distance is within r and A counts the pairs that still match when
// extended to m+1 samples. SampEn = ln(B/A). Self matches are excluded.
type SampleEntropy struct {
	order int     // template length m
	ratio float64 // r = ratio · population std
}

// NewSampleEntropy creates a sample entropy estimator
func NewSampleEntropy(order int, ratio float64) *SampleEntropy {
	return &SampleEntropy{order: order, ratio: ratio}
}

// Compute returns the sample entropy of x
func (se *SampleEntropy) Compute(x []float64) (float64, error) {
	m := se.order
	n := len(x)
	if m < 1 {
		return 0, fmt.Errorf("order must be at least 1, got %d", m)
	}
	if n <= m+1 {
		return 0, fmt.Errorf("need more than %d samples, got %d", m+1, n)
	}

	std := common.PopStdDev(x)
	if std == 0 {
		return 0, fmt.Errorf("sample entropy undefined for a constant signal")
	}
	r := se.ratio * std

	templates := n - m
	var a, b int
	for i := 0; i < templates-1; i++ {
		for j := i + 1; j < templates; j++ {
			if !withinRadius(x, i, j, m, r) {
				continue
			}
			b++
			if math.Abs(x[i+m]-x[j+m]) <= r {
				a++
			}
		}
	}

	if a == 0 || b == 0 {
		return 0, fmt.Errorf("sample entropy undefined: %d matches of length %d, %d of length %d", b, m, a, m+1)
	}
	return math.Log(float64(b) / float64(a)), nil
}

// withinRadius reports whether templates starting at i and j of length m
// have Chebyshev distance <= r
func withinRadius(x []float64, i, j, m int, r float64) bool {
	for k := range m {
		if math.Abs(x[i+k]-x[j+k]) > r {
			return false
		}
	}
	return true
}
