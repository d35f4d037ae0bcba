// Package features computes the per-window KPI families: time domain,
// frequency domain, nonlinear dynamics and cross-channel connectivity.
//
// Every metric is produced as a Result. Failures never propagate: they are
// recorded on the Vector and the metric's value becomes NaN, so the key set
// of a configuration is identical for every window.
package features

import (
	"errors"
	"fmt"
	"math"
)

// Family tags used in feature names
const (
	FamilyTime         = "time"
	FamilyFrequency    = "freq"
	FamilyNonlinear    = "nonlin"
	FamilyConnectivity = "conn"
)

// Epsilon guards ratios and logarithms against zero denominators
const Epsilon = 1e-10

// ErrNonFinite marks an estimator that produced NaN or Inf where a finite
// value is required
var ErrNonFinite = errors.New("non-finite result")

// FeatureError describes why one metric could not be computed
type FeatureError struct {
	Family string
	Metric string
	Err    error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Family, e.Metric, e.Err)
}

func (e *FeatureError) Unwrap() error {
	return e.Err
}

// Result is the value of one metric or the reason it is missing
type Result struct {
	Value float64
	Err   error
}

// Ok wraps a computed value. NaN is allowed for metrics that are
// legitimately undefined.
func Ok(v float64) Result {
	return Result{Value: v}
}

// Fail records a failed metric
func Fail(family, metric string, err error) Result {
	return Result{Value: math.NaN(), Err: &FeatureError{Family: family, Metric: metric, Err: err}}
}

// Failed reports whether the metric carries an error
func (r Result) Failed() bool {
	return r.Err != nil
}

// Guard runs fn and converts both returned errors and panics into a failed
// Result
func Guard(family, metric string, fn func() (float64, error)) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Fail(family, metric, fmt.Errorf("panic: %v", p))
		}
	}()

	v, err := fn()
	if err != nil {
		return Fail(family, metric, err)
	}
	return Ok(v)
}

// GuardFinite is Guard for estimators whose output must be finite
func GuardFinite(family, metric string, fn func() (float64, error)) Result {
	res := Guard(family, metric, fn)
	if !res.Failed() && (math.IsNaN(res.Value) || math.IsInf(res.Value, 0)) {
		return Fail(family, metric, fmt.Errorf("%w: %v", ErrNonFinite, res.Value))
	}
	return res
}

// results collects the Results of one family before they are laid out in
// schema order
type results map[string]Result

// fill writes the metrics of a family into v in order. A metric with no
// Result is recorded as a failure so that a forgotten key can never show up
// as a silent zero.
func (r results) fill(v *Vector, family string, metrics []string) {
	for _, m := range metrics {
		res, ok := r[m]
		if !ok {
			res = Fail(family, m, errors.New("not computed"))
		}
		v.SetResult(m, res)
	}
}
