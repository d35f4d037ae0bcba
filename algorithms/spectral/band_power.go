package spectral

import (
	"math"

	"gonum.org/v1/gonum/integrate"
)

// BandPower integrates a density over the bins with low <= f <= high
type BandPower struct {
	// No state needed
}

// NewBandPower creates a new band power calculator
func NewBandPower() *BandPower {
	return &BandPower{}
}

// Compute integrates with Simpson's rule. Two bins fall back to the
// trapezoid rule; fewer than two carry no area and return 0.
func (bp *BandPower) Compute(freqs, power []float64, low, high float64) float64 {
	start, end := binRange(freqs, low, high)
	n := end - start

	switch {
	case n >= 3:
		return integrate.Simpsons(freqs[start:end], power[start:end])
	case n == 2:
		return integrate.Trapezoidal(freqs[start:end], power[start:end])
	default:
		return 0
	}
}

// Mean averages values over the bins with low <= f <= high, skipping NaN.
// ok is false when no bin qualifies.
func (bp *BandPower) Mean(freqs, values []float64, low, high float64) (mean float64, ok bool) {
	start, end := binRange(freqs, low, high)

	sum, count := 0.0, 0
	for i := start; i < end; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		sum += values[i]
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// binRange returns the half-open index range of ascending freqs inside
// [low, high]
func binRange(freqs []float64, low, high float64) (int, int) {
	start := len(freqs)
	for i, f := range freqs {
		if f >= low {
			start = i
			break
		}
	}
	end := start
	for end < len(freqs) && freqs[end] <= high {
		end++
	}
	return start, end
}
