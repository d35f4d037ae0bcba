package complexity

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
)

// Binarize maps each sample to 1 if it lies strictly above the mean, else 0
func Binarize(x []float64) []byte {
	mean := common.Mean(x)
	out := make([]byte, len(x))
	for i, v := range x {
		if v > mean {
			out[i] = 1
		}
	}
	return out
}

// LempelZiv counts the distinct patterns of a symbol sequence with the
// Kaspar-Schuster (1987) scheme for the Lempel-Ziv (1976) complexity.
func LempelZiv(s []byte) (int, error) {
	n := len(s)
	if n < 2 {
		return 0, fmt.Errorf("need at least 2 symbols, got %d", n)
	}

	u, v, w := 0, 1, 1
	vMax := 1
	complexity := 1

	for {
		if s[u+v-1] == s[w+v-1] {
			v++
			if w+v >= n {
				complexity++
				break
			}
			continue
		}

		vMax = max(v, vMax)
		u++
		if u == w {
			complexity++
			w += vMax
			if w >= n {
				break
			}
			u, v, vMax = 0, 1, 1
		} else {
			v = 1
		}
	}

	return complexity, nil
}

// NormalizedLZC binarizes x around its mean and returns the Lempel-Ziv
// complexity divided by n/log2(n), the asymptotic value for a random
// binary sequence.
func NormalizedLZC(x []float64) (float64, error) {
	c, err := LempelZiv(Binarize(x))
	if err != nil {
		return 0, err
	}
	n := float64(len(x))
	return float64(c) / (n / math.Log2(n)), nil
}
