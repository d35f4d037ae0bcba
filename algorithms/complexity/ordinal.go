package complexity

import (
	"fmt"
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-kpi/algorithms/stats"
	"gonum.org/v1/gonum/mat"
)

// embed returns the delay embedding of x: rows x[i], x[i+delay], ...,
// x[i+(order-1)·delay]
func embed(x []float64, order, delay int) ([][]float64, error) {
	if order < 2 {
		return nil, fmt.Errorf("embedding order must be at least 2, got %d", order)
	}
	if delay < 1 {
		return nil, fmt.Errorf("embedding delay must be at least 1, got %d", delay)
	}
	rows := len(x) - (order-1)*delay
	if rows < 1 {
		return nil, fmt.Errorf("signal of %d samples too short for order %d delay %d", len(x), order, delay)
	}

	out := make([][]float64, rows)
	for i := range rows {
		out[i] = make([]float64, order)
		for k := range order {
			out[i][k] = x[i+k*delay]
		}
	}
	return out, nil
}

// PermutationEntropy is the Shannon entropy of ordinal patterns (Bandt &
// Pompe, 2002), normalised by log2(order!).
type PermutationEntropy struct {
	order int
	delay int
}

// NewPermutationEntropy creates a permutation entropy estimator
func NewPermutationEntropy(order, delay int) *PermutationEntropy {
	return &PermutationEntropy{order: order, delay: delay}
}

// Compute returns the normalised permutation entropy of x. Ties are ranked
// by position.
func (pe *PermutationEntropy) Compute(x []float64) (float64, error) {
	vectors, err := embed(x, pe.order, pe.delay)
	if err != nil {
		return 0, err
	}

	counts := make(map[int]float64)
	idx := make([]int, pe.order)
	for _, v := range vectors {
		for k := range idx {
			idx[k] = k
		}
		sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

		// encode the permutation as a base-order number
		key := 0
		for _, k := range idx {
			key = key*pe.order + k
		}
		counts[key]++
	}

	weights := make([]float64, 0, len(counts))
	for _, c := range counts {
		weights = append(weights, c)
	}
	sort.Float64s(weights)

	entropy := stats.ShannonEntropy(stats.NormalizeToProbabilities(weights), 2)
	return entropy / math.Log2(factorial(pe.order)), nil
}

// SVDEntropy is the Shannon entropy of the normalised singular values of
// the delay-embedding matrix (Roberts et al., 1999), normalised by
// log2(order).
type SVDEntropy struct {
	order int
	delay int
}

// NewSVDEntropy creates an SVD entropy estimator
func NewSVDEntropy(order, delay int) *SVDEntropy {
	return &SVDEntropy{order: order, delay: delay}
}

// Compute returns the normalised SVD entropy of x
func (se *SVDEntropy) Compute(x []float64) (float64, error) {
	vectors, err := embed(x, se.order, se.delay)
	if err != nil {
		return 0, err
	}

	data := make([]float64, 0, len(vectors)*se.order)
	for _, v := range vectors {
		data = append(data, v...)
	}
	embedded := mat.NewDense(len(vectors), se.order, data)

	var svd mat.SVD
	if ok := svd.Factorize(embedded, mat.SVDNone); !ok {
		return 0, fmt.Errorf("singular value decomposition failed")
	}

	probabilities := stats.NormalizeToProbabilities(svd.Values(nil))
	if probabilities == nil {
		return 0, fmt.Errorf("svd entropy undefined for an all-zero signal")
	}

	return stats.ShannonEntropy(probabilities, 2) / math.Log2(float64(se.order)), nil
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
