package features

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
	"github.com/RyanBlaney/sonido-kpi/algorithms/complexity"
	"github.com/RyanBlaney/sonido-kpi/algorithms/filters"
	"github.com/RyanBlaney/sonido-kpi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kpi/algorithms/temporal"
	"github.com/RyanBlaney/sonido-kpi/algorithms/windowing"
	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
)

// burstFilterSections is the number of cascaded biquads in the burst
// band-pass, run forward and backward
const burstFilterSections = 2

// Nonlinear extracts entropy, fractal, complexity, burst and power
// variability descriptors (Family C). Each metric is guarded on its own.
type Nonlinear struct {
	sampleRate float64
	registry   *bands.Registry
	metrics    []string

	sampen  *complexity.SampleEntropy
	perm    *complexity.PermutationEntropy
	svd     *complexity.SVDEntropy
	higuchi *complexity.HiguchiFD
	dfa     *complexity.DFA

	burstBand  bands.Band
	burstErr   error
	burstSD    float64
	envelope   *temporal.Envelope
	powvarSize int
	powvarHop  int
	powvarHann *windowing.Hann
	stft       *spectral.STFT
	powerDens  *spectral.PowerSpectrum
	bandPower  *spectral.BandPower
}

// NewNonlinear creates a Family C extractor
func NewNonlinear(cfg config.Config, reg *bands.Registry) *Nonlinear {
	nc := cfg.Nonlinear

	n := &Nonlinear{
		sampleRate: cfg.SampleRate,
		registry:   reg,
		metrics:    NonlinearMetrics(reg),
		sampen:     complexity.NewSampleEntropy(nc.SampEnOrder, nc.SampEnRatio),
		perm:       complexity.NewPermutationEntropy(3, 1),
		svd:        complexity.NewSVDEntropy(3, 1),
		higuchi:    complexity.NewHiguchiFD(nc.HiguchiKmax),
		dfa:        complexity.NewDFA(),
		burstSD:    nc.BurstThresholdSD,
		envelope:   temporal.NewEnvelope(),
		stft:       spectral.NewSTFT(),
		powerDens:  spectral.NewPowerSpectrum(),
		bandPower:  spectral.NewBandPower(),
	}

	band, ok := reg.Get(nc.BurstBand)
	if ok {
		n.burstBand = band
	} else {
		n.burstErr = fmt.Errorf("burst band %q not configured", nc.BurstBand)
	}

	n.powvarSize = int(math.Round(nc.PowerVarWindowSec * cfg.SampleRate))
	n.powvarHop = max(1, int(math.Round(float64(n.powvarSize)*(1-nc.PowerVarOverlapRatio))))
	if n.powvarSize > 0 {
		n.powvarHann = windowing.NewPeriodicHann(n.powvarSize)
	}

	return n
}

// Metrics returns the metric names in output order
func (nl *Nonlinear) Metrics() []string {
	return append([]string(nil), nl.metrics...)
}

// Extract computes Family C for one channel
func (nl *Nonlinear) Extract(x []float64) *Vector {
	v := NewVector(len(nl.metrics))
	res := make(results, len(nl.metrics))

	if !common.AllFinite(x) {
		err := fmt.Errorf("window contains non-finite samples")
		for _, m := range nl.metrics {
			res[m] = Fail(FamilyNonlinear, m, err)
		}
		res.fill(v, FamilyNonlinear, nl.metrics)
		return v
	}

	res["sampen"] = nl.finite("sampen", func() (float64, error) { return nl.sampen.Compute(x) })
	res["perm_ent"] = nl.finite("perm_ent", func() (float64, error) { return nl.perm.Compute(x) })
	res["svd_ent"] = nl.finite("svd_ent", func() (float64, error) { return nl.svd.Compute(x) })
	res["higuchi_fd"] = nl.finite("higuchi_fd", func() (float64, error) { return nl.higuchi.Compute(x) })
	res["petrosian_fd"] = nl.finite("petrosian_fd", func() (float64, error) { return complexity.PetrosianFD(x) })
	res["katz_fd"] = nl.finite("katz_fd", func() (float64, error) { return complexity.KatzFD(x) })
	res["lzc"] = nl.finite("lzc", func() (float64, error) { return complexity.NormalizedLZC(x) })
	res["dfa"] = nl.finite("dfa", func() (float64, error) { return nl.dfa.Compute(x) })
	res["alpha_burst_rate"] = nl.finite("alpha_burst_rate", func() (float64, error) { return nl.BurstRate(x) })

	variability, err := nl.powerVariability(x)
	for _, b := range nl.registry.Names() {
		metric := "powvar_" + b
		if err != nil {
			res[metric] = Fail(FamilyNonlinear, metric, err)
			continue
		}
		res[metric] = nl.finite(metric, func() (float64, error) { return variability[b], nil })
	}

	res.fill(v, FamilyNonlinear, nl.metrics)
	return v
}

func (nl *Nonlinear) finite(metric string, fn func() (float64, error)) Result {
	return GuardFinite(FamilyNonlinear, metric, fn)
}

// BurstRate counts envelope threshold crossings in the burst band per
// second. The band-pass is built per call because its sections carry
// state.
func (nl *Nonlinear) BurstRate(x []float64) (float64, error) {
	if nl.burstErr != nil {
		return 0, nl.burstErr
	}

	bp, err := filters.NewZeroPhaseBandpass(nl.sampleRate, nl.burstBand.Low, nl.burstBand.High, burstFilterSections)
	if err != nil {
		return 0, fmt.Errorf("burst filter: %w", err)
	}
	filtered, err := bp.Apply(x)
	if err != nil {
		return 0, err
	}

	env, err := nl.envelope.ComputeHilbert(filtered)
	if err != nil {
		return 0, err
	}

	threshold := common.Mean(env) + nl.burstSD*common.PopStdDev(env)
	duration := float64(len(x)) / nl.sampleRate
	return float64(temporal.RisingEdges(env, threshold)) / duration, nil
}

// powerVariability returns, per band, the population variance of band
// power across spectrogram frames
func (nl *Nonlinear) powerVariability(x []float64) (variability map[string]float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			variability, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	if nl.powvarHann == nil {
		return nil, fmt.Errorf("power variability window is empty")
	}
	if nl.powvarSize > len(x) {
		return nil, fmt.Errorf("power variability window of %d samples exceeds the %d sample epoch", nl.powvarSize, len(x))
	}

	stft, err := nl.stft.ComputeWithWindow(x, nl.powvarSize, nl.powvarHop, nl.sampleRate, nl.powvarHann)
	if err != nil {
		return nil, fmt.Errorf("spectrogram: %w", err)
	}
	if stft.TimeFrames < 2 {
		return nil, fmt.Errorf("only %d spectrogram frame", stft.TimeFrames)
	}

	density := nl.powerDens.DensityFromSTFT(stft, nl.powvarHann.SumSquares())
	freqs := stft.Frequencies()

	variability = make(map[string]float64, nl.registry.Len())
	trace := make([]float64, stft.TimeFrames)
	for _, b := range nl.registry.Bands() {
		for t, frame := range density {
			trace[t] = nl.bandPower.Compute(freqs, frame, b.Low, b.High)
		}
		variability[b.Name] = common.PopVariance(trace)
	}
	return variability, nil
}
