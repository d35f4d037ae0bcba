package temporal

// RisingEdges counts transitions from at-or-below threshold to above it.
// A signal that starts above the threshold does not count as an edge.
func RisingEdges(signal []float64, threshold float64) int {
	edges := 0
	for i := 1; i < len(signal); i++ {
		if signal[i-1] <= threshold && signal[i] > threshold {
			edges++
		}
	}
	return edges
}
