// Package bands holds the named frequency bands shared by every spectral
// computation, so that "alpha" means the same range in band power, burst
// detection, coherence and asymmetry.
package bands

import (
	"fmt"
	"strings"
)

// Band is a named [Low, High] frequency range in Hz
type Band struct {
	Name string  `yaml:"name" json:"name"`
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
}

// Contains reports whether freq lies inside the closed band range
func (b Band) Contains(freq float64) bool {
	return freq >= b.Low && freq <= b.High
}

// Width returns High - Low
func (b Band) Width() float64 {
	return b.High - b.Low
}

// Registry is an ordered, immutable set of non-overlapping bands
type Registry struct {
	bands []Band
	index map[string]int
}

// Default returns the delta/theta/alpha/beta/gamma layout used for 250 Hz
// recordings low-passed at 40 Hz.
func Default() *Registry {
	r, err := New(
		Band{Name: "delta", Low: 1.0, High: 4.0},
		Band{Name: "theta", Low: 4.0, High: 8.0},
		Band{Name: "alpha", Low: 8.0, High: 13.0},
		Band{Name: "beta", Low: 13.0, High: 30.0},
		Band{Name: "gamma", Low: 30.0, High: 40.0},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// New builds a registry. Bands must be given in ascending order; touching
// edges (previous High == next Low) are allowed, overlap is not.
func New(bands ...Band) (*Registry, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("band registry is empty")
	}

	r := &Registry{
		bands: make([]Band, len(bands)),
		index: make(map[string]int, len(bands)),
	}

	for i, b := range bands {
		name := strings.ToLower(strings.TrimSpace(b.Name))
		if name == "" {
			return nil, fmt.Errorf("band %d: empty name", i)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("band %q: duplicate name", name)
		}
		if b.Low < 0 {
			return nil, fmt.Errorf("band %q: low edge %.3f Hz is negative", name, b.Low)
		}
		if b.Low >= b.High {
			return nil, fmt.Errorf("band %q: low edge %.3f Hz must be below high edge %.3f Hz", name, b.Low, b.High)
		}
		if i > 0 {
			prev := r.bands[i-1]
			if b.Low < prev.Low {
				return nil, fmt.Errorf("band %q: bands must be ordered by frequency (follows %q)", name, prev.Name)
			}
			if b.Low < prev.High {
				return nil, fmt.Errorf("band %q [%.3f, %.3f] overlaps %q [%.3f, %.3f]",
					name, b.Low, b.High, prev.Name, prev.Low, prev.High)
			}
		}

		r.bands[i] = Band{Name: name, Low: b.Low, High: b.High}
		r.index[name] = i
	}

	return r, nil
}

// Validate checks the registry against the recording's sample rate and the
// upstream low-pass cutoff. lowpassHz <= 0 skips the cutoff check.
func (r *Registry) Validate(sampleRate float64, lowpassHz float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %.3f", sampleRate)
	}

	nyquist := sampleRate / 2
	for _, b := range r.bands {
		if b.High > nyquist {
			return fmt.Errorf("band %q: high edge %.3f Hz exceeds Nyquist %.3f Hz", b.Name, b.High, nyquist)
		}
		if lowpassHz > 0 && b.High > lowpassHz {
			return fmt.Errorf("band %q: high edge %.3f Hz exceeds low-pass cutoff %.3f Hz", b.Name, b.High, lowpassHz)
		}
	}
	return nil
}

// Bands returns a copy of the bands in registry order
func (r *Registry) Bands() []Band {
	out := make([]Band, len(r.bands))
	copy(out, r.bands)
	return out
}

// Names returns band names in registry order
func (r *Registry) Names() []string {
	names := make([]string, len(r.bands))
	for i, b := range r.bands {
		names[i] = b.Name
	}
	return names
}

// Get looks a band up by (case-insensitive) name
func (r *Registry) Get(name string) (Band, bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return Band{}, false
	}
	return r.bands[i], true
}

// Len returns the number of bands
func (r *Registry) Len() int {
	return len(r.bands)
}

// Span returns the lowest and highest edge covered by the registry
func (r *Registry) Span() (low, high float64) {
	return r.bands[0].Low, r.bands[len(r.bands)-1].High
}
