package common

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical helpers shared across algorithms, built on gonum.
// Variances here are population variances (divide by N), which is what
// every EEG descriptor in this module uses.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopVariance calculates the population variance
func PopVariance(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.PopVariance(data, nil)
}

// PopStdDev calculates the population standard deviation
func PopStdDev(data []float64) float64 {
	return math.Sqrt(PopVariance(data))
}

// Median returns the middle value, averaging the two middle values for
// even lengths. data is not modified.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// Diff returns the first difference x[i+1]-x[i]
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}
	d := make([]float64, len(data)-1)
	floats.SubTo(d, data[1:], data[:len(data)-1])
	return d
}

// AllFinite reports whether data has no NaN or Inf
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LinRegression fits y = intercept + slope·x by least squares and reports
// r². It fails with fewer than two points or a degenerate x.
func LinRegression(x, y []float64) (slope, intercept, rSquared float64, err error) {
	if len(x) != len(y) {
		return 0, 0, 0, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, 0, 0, fmt.Errorf("need at least 2 points, got %d", len(x))
	}
	if PopVariance(x) == 0 {
		return 0, 0, 0, fmt.Errorf("regressor is constant")
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	yMean := Mean(y)
	ssTotal := 0.0
	ssResidual := 0.0
	for i := range x {
		predicted := alpha + beta*x[i]
		ssTotal += (y[i] - yMean) * (y[i] - yMean)
		ssResidual += (y[i] - predicted) * (y[i] - predicted)
	}

	rSquared = 1.0 - (ssResidual / ssTotal)
	if math.IsNaN(rSquared) || math.IsInf(rSquared, 0) {
		rSquared = 0.0
	}

	return beta, alpha, rSquared, nil
}

// LocalMaxima returns indices of strict local maxima (greater than both
// neighbours) whose value exceeds minHeight. Endpoints never qualify.
func LocalMaxima(data []float64, minHeight float64) []int {
	if len(data) < 3 {
		return []int{}
	}

	peaks := []int{}
	for i := 1; i < len(data)-1; i++ {
		if data[i] > data[i-1] && data[i] > data[i+1] && data[i] > minHeight {
			peaks = append(peaks, i)
		}
	}
	return peaks
}
