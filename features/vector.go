package features

import (
	"errors"
	"slices"
)

// Vector is an ordered feature name -> value mapping. Insertion order is
// preserved so rows can be concatenated column by column.
type Vector struct {
	keys     []string
	values   []float64
	failed   []bool
	index    map[string]int
	failures []*FeatureError
}

// NewVector creates an empty vector
func NewVector(capacity int) *Vector {
	return &Vector{
		keys:   make([]string, 0, capacity),
		values: make([]float64, 0, capacity),
		failed: make([]bool, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (v *Vector) put(key string, value float64, failed bool) {
	if i, ok := v.index[key]; ok {
		v.values[i] = value
		v.failed[i] = failed
		return
	}
	v.index[key] = len(v.keys)
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
	v.failed = append(v.failed, failed)
}

// Set stores a value
func (v *Vector) Set(key string, value float64) {
	v.put(key, value, false)
}

// SetResult stores a Result. Failures become NaN and are kept in
// Failures.
func (v *Vector) SetResult(key string, r Result) {
	if r.Err == nil {
		v.put(key, r.Value, false)
		return
	}

	var fe *FeatureError
	if !errors.As(r.Err, &fe) {
		fe = &FeatureError{Metric: key, Err: r.Err}
	}
	v.failures = append(v.failures, fe)
	v.put(key, nan, true)
}

// Get returns the value stored under key
func (v *Vector) Get(key string) (float64, bool) {
	i, ok := v.index[key]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Keys returns the feature names in insertion order
func (v *Vector) Keys() []string {
	return slices.Clone(v.keys)
}

// Values returns the values in key order
func (v *Vector) Values() []float64 {
	return slices.Clone(v.values)
}

// Len returns the number of features
func (v *Vector) Len() int {
	return len(v.keys)
}

// Failures returns the errors recorded for failed metrics
func (v *Vector) Failures() []*FeatureError {
	return v.failures
}

// AllFailed reports whether the vector is non-empty and every metric in it
// failed
func (v *Vector) AllFailed() bool {
	if len(v.keys) == 0 {
		return false
	}
	for _, f := range v.failed {
		if !f {
			return false
		}
	}
	return true
}

// Merge appends every feature of other as prefix_key
func (v *Vector) Merge(prefix string, other *Vector) {
	for i, k := range other.keys {
		if prefix != "" {
			k = prefix + "_" + k
		}
		v.put(k, other.values[i], other.failed[i])
	}
	v.failures = append(v.failures, other.failures...)
}
