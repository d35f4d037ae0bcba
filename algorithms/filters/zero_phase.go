package filters

import (
	"fmt"
	"slices"
)

// ZeroPhaseBandpass cascades identical biquad sections and runs the
// cascade forward then backward, so the output has no phase shift and the
// magnitude response is squared. Edges are padded with an odd reflection
// of the signal to damp start-up transients.
type ZeroPhaseBandpass struct {
	sections []*BandpassFilter
	padLen   int
}

// NewZeroPhaseBandpass builds a zero-phase filter passing [low, high] Hz
func NewZeroPhaseBandpass(sampleRate, low, high float64, numSections int) (*ZeroPhaseBandpass, error) {
	if numSections < 1 {
		return nil, fmt.Errorf("need at least one filter section, got %d", numSections)
	}

	sections := make([]*BandpassFilter, numSections)
	for i := range sections {
		bf, err := NewBandpassFromEdges(sampleRate, low, high)
		if err != nil {
			return nil, err
		}
		sections[i] = bf
	}

	return &ZeroPhaseBandpass{
		sections: sections,
		// 3 x filter order, the customary forward-backward pad length
		padLen: 3 * (2*numSections + 1),
	}, nil
}

// Apply filters signal without modifying it
func (z *ZeroPhaseBandpass) Apply(signal []float64) ([]float64, error) {
	if len(signal) < 2 {
		return nil, fmt.Errorf("signal too short to filter (%d samples)", len(signal))
	}

	pad := min(z.padLen, len(signal)-1)
	extended := oddExtend(signal, pad)

	z.runCascade(extended)
	slices.Reverse(extended)
	z.runCascade(extended)
	slices.Reverse(extended)

	out := make([]float64, len(signal))
	copy(out, extended[pad:pad+len(signal)])
	return out, nil
}

// runCascade filters buf in place through every section from rest
func (z *ZeroPhaseBandpass) runCascade(buf []float64) {
	for _, section := range z.sections {
		section.Reset()
		for i, v := range buf {
			buf[i] = section.Process(v)
		}
	}
}

// oddExtend reflects pad samples about each endpoint: 2·x[0] - x[pad..1]
// in front, 2·x[n-1] - x[n-2..n-1-pad] behind.
func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	for i := range pad {
		out[i] = 2*x[0] - x[pad-i]
		out[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(out[pad:], x)
	return out
}
