package complexity

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// HiguchiFD estimates fractal dimension from curve lengths at increasing
// sampling intervals (Higuchi, 1988).
//
// For each interval k in 1..kmax and offset m in 0..k-1 the normalised
// length L_m(k) of the subsampled curve is computed; the dimension is the
// slope of ln L(k) against ln(1/k).
type HiguchiFD struct {
	kmax int
}

// NewHiguchiFD creates a Higuchi estimator
func NewHiguchiFD(kmax int) *HiguchiFD {
	return &HiguchiFD{kmax: kmax}
}

// Compute returns the Higuchi fractal dimension of x
func (h *HiguchiFD) Compute(x []float64) (float64, error) {
	n := len(x)
	if h.kmax < 2 {
		return 0, fmt.Errorf("kmax must be at least 2, got %d", h.kmax)
	}
	if n < h.kmax+2 {
		return 0, fmt.Errorf("need at least %d samples, got %d", h.kmax+2, n)
	}

	logInvK := make([]float64, h.kmax)
	logL := make([]float64, h.kmax)

	for k := 1; k <= h.kmax; k++ {
		total := 0.0
		for m := range k {
			steps := (n - m - 1) / k
			if steps < 1 {
				return 0, fmt.Errorf("interval %d leaves no increments at offset %d", k, m)
			}
			length := 0.0
			for j := 1; j <= steps; j++ {
				length += math.Abs(x[m+j*k] - x[m+(j-1)*k])
			}
			total += length * float64(n-1) / float64(steps*k) / float64(k)
		}

		mean := total / float64(k)
		if mean <= 0 {
			return 0, fmt.Errorf("curve length vanishes at interval %d", k)
		}
		logInvK[k-1] = math.Log(1.0 / float64(k))
		logL[k-1] = math.Log(mean)
	}

	slope, _, _, err := common.LinRegression(logInvK, logL)
	if err != nil {
		return 0, err
	}
	return slope, nil
}

// PetrosianFD computes log10(N) / (log10(N) + log10(N / (N + 0.4·NΔ)))
// where NΔ is the number of sign changes in the first difference
// (Petrosian, 1995).
func PetrosianFD(x []float64) (float64, error) {
	n := len(x)
	if n < 3 {
		return 0, fmt.Errorf("need at least 3 samples, got %d", n)
	}

	diff := common.Diff(x)
	signChanges := 0
	for i := 1; i < len(diff); i++ {
		if math.Signbit(diff[i]) != math.Signbit(diff[i-1]) {
			signChanges++
		}
	}

	fn := float64(n)
	logN := math.Log10(fn)
	return logN / (logN + math.Log10(fn/(fn+0.4*float64(signChanges)))), nil
}

// KatzFD computes log10(L/a) / (log10(L/a) + log10(d/L)) with L the total
// curve length, a the mean step and d the largest excursion from the first
// sample (Katz, 1988).
func KatzFD(x []float64) (float64, error) {
	if len(x) < 3 {
		return 0, fmt.Errorf("need at least 3 samples, got %d", len(x))
	}

	steps := common.Diff(x)
	for i := range steps {
		steps[i] = math.Abs(steps[i])
	}
	length := floats.Sum(steps)
	if length == 0 {
		return 0, fmt.Errorf("katz dimension undefined for a constant signal")
	}
	meanStep := length / float64(len(steps))

	extent := 0.0
	for _, v := range x[1:] {
		extent = math.Max(extent, math.Abs(v-x[0]))
	}
	if extent == 0 {
		return 0, fmt.Errorf("katz dimension undefined: signal returns to its first sample at every step")
	}

	ln := math.Log10(length / meanStep)
	fd := ln / (ln + math.Log10(extent/length))
	if math.IsNaN(fd) || math.IsInf(fd, 0) {
		return 0, fmt.Errorf("katz dimension not finite")
	}
	return fd, nil
}
