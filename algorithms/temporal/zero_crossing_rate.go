package temporal

// ZeroCrossingRate counts sign changes of a signal
type ZeroCrossingRate struct {
	// No state needed
}

// NewZeroCrossingRate creates a new zero crossing rate calculator
func NewZeroCrossingRate() *ZeroCrossingRate {
	return &ZeroCrossingRate{}
}

// Count returns the number of adjacent pairs whose signs differ, with
// sign taking the values -1, 0 and +1. Touching zero therefore counts as
// a change on the way in and on the way out.
func (zcr *ZeroCrossingRate) Count(signal []float64) int {
	crossings := 0
	for i := 1; i < len(signal); i++ {
		if sign(signal[i-1]) != sign(signal[i]) {
			crossings++
		}
	}
	return crossings
}

// Compute returns Count divided by the number of samples
func (zcr *ZeroCrossingRate) Compute(signal []float64) float64 {
	if len(signal) == 0 {
		return 0.0
	}
	return float64(zcr.Count(signal)) / float64(len(signal))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
