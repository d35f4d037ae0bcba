package complexity

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
)

// DFA is detrended fluctuation analysis (Peng et al., 1995).
//
// The mean-removed cumulative sum of the signal is cut into
// non-overlapping boxes of n samples, a least-squares line is removed
// from each box and the RMS residual averaged over boxes gives F(n). The
// scaling exponent is the slope of log F(n) against log n. Box sizes grow
// geometrically from 4 by a factor of 1.2 up to a tenth of the signal.
type DFA struct {
	minBox   int
	factor   float64
	maxShare float64
}

// NewDFA creates a DFA estimator
func NewDFA() *DFA {
	return &DFA{minBox: 4, factor: 1.2, maxShare: 0.1}
}

// BoxSizes returns the distinct box lengths used for a signal of n samples
func (d *DFA) BoxSizes(n int) []int {
	maxN := d.maxShare * float64(n)
	if maxN < float64(d.minBox) {
		return nil
	}

	steps := int(math.Floor(math.Log(maxN/float64(d.minBox)) / math.Log(d.factor)))
	sizes := []int{d.minBox}
	for i := 0; i <= steps; i++ {
		size := int(math.Floor(float64(d.minBox) * math.Pow(d.factor, float64(i))))
		if size > sizes[len(sizes)-1] {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// Compute returns the DFA scaling exponent of x
func (d *DFA) Compute(x []float64) (float64, error) {
	sizes := d.BoxSizes(len(x))
	if len(sizes) < 2 {
		return 0, fmt.Errorf("signal of %d samples too short for fluctuation analysis", len(x))
	}

	mean := common.Mean(x)
	walk := make([]float64, len(x))
	acc := 0.0
	for i, v := range x {
		acc += v - mean
		walk[i] = acc
	}

	var logN, logF []float64
	for _, n := range sizes {
		f := boxFluctuation(walk, n)
		if f > 0 {
			logN = append(logN, math.Log(float64(n)))
			logF = append(logF, math.Log(f))
		}
	}

	if len(logN) < 2 {
		return 0, fmt.Errorf("fluctuation vanishes at all but %d box sizes", len(logN))
	}

	slope, _, _, err := common.LinRegression(logN, logF)
	if err != nil {
		return 0, err
	}
	return slope, nil
}

// boxFluctuation averages the RMS of linearly detrended boxes of size n
func boxFluctuation(walk []float64, n int) float64 {
	boxes := len(walk) / n
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	tMean := float64(n-1) / 2
	tVar := 0.0
	for _, v := range t {
		tVar += (v - tMean) * (v - tMean)
	}

	total := 0.0
	for b := range boxes {
		box := walk[b*n : (b+1)*n]
		yMean := common.Mean(box)

		cov := 0.0
		for i, y := range box {
			cov += (t[i] - tMean) * (y - yMean)
		}
		slope := cov / tVar
		intercept := yMean - slope*tMean

		ss := 0.0
		for i, y := range box {
			r := y - (intercept + slope*t[i])
			ss += r * r
		}
		total += math.Sqrt(ss / float64(n))
	}

	return total / float64(boxes)
}
