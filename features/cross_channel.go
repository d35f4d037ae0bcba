package features

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kpi/algorithms/stats"
	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
)

// CrossChannel extracts coherence, correlation, phase synchronisation and
// power asymmetry for every channel pair (Family D)
type CrossChannel struct {
	sampleRate   float64
	nperseg      int
	registry     *bands.Registry
	metrics      []string
	pairs        []Pair
	welch        *spectral.Welch
	bandPower    *spectral.BandPower
	connectivity Connectivity
}

// NewCrossChannel creates a Family D extractor for the configured channels
func NewCrossChannel(cfg config.Config, reg *bands.Registry, conn Connectivity) *CrossChannel {
	return &CrossChannel{
		sampleRate:   cfg.SampleRate,
		nperseg:      int(math.Round(cfg.Connectivity.WindowSec * cfg.SampleRate)),
		registry:     reg,
		metrics:      CrossChannelMetrics(reg),
		pairs:        Pairs(cfg.Channels),
		welch:        spectral.NewWelch(),
		bandPower:    spectral.NewBandPower(),
		connectivity: conn,
	}
}

// Pairs returns the channel pairs the extractor covers
func (cc *CrossChannel) Pairs() []Pair {
	return append([]Pair(nil), cc.pairs...)
}

// Extract computes Family D for one window. data holds one row per
// configured channel and powers the Family B band powers of each channel.
// A single-channel configuration yields an empty vector.
func (cc *CrossChannel) Extract(data [][]float64, powers []BandPowers) *Vector {
	v := NewVector(len(cc.pairs) * len(cc.metrics))

	for _, p := range cc.pairs {
		pv := cc.extractPair(data[p.I], data[p.J], powers[p.I], powers[p.J])
		v.Merge(pairPrefix(cc.pairs, p), pv)
	}
	return v
}

func (cc *CrossChannel) extractPair(x, y []float64, left, right BandPowers) *Vector {
	v := NewVector(len(cc.metrics))
	res := make(results, len(cc.metrics))
	names := cc.registry.Names()

	res["pearson_corr"] = GuardFinite(FamilyConnectivity, "pearson_corr", func() (float64, error) {
		return stats.Pearson(x, y)
	})

	cc.coherence(x, y, res)
	cc.phase(x, y, res)

	for _, b := range names {
		metric := "asym_" + b
		res[metric] = GuardFinite(FamilyConnectivity, metric, func() (float64, error) {
			return math.Log(right[b]+Epsilon) - math.Log(left[b]+Epsilon), nil
		})
	}

	res.fill(v, FamilyConnectivity, cc.metrics)
	return v
}

// coherence averages magnitude-squared coherence over each band
func (cc *CrossChannel) coherence(x, y []float64, res results) {
	var coh, freqs []float64
	err := Guard(FamilyConnectivity, "coh", func() (float64, error) {
		cs, err := cc.welch.CSD(x, y, cc.sampleRate, cc.nperseg)
		if err != nil {
			return 0, err
		}
		coh, freqs = cs.Coherence(), cs.Freqs
		return 0, nil
	}).Err

	for _, b := range cc.registry.Bands() {
		metric := "coh_" + b.Name
		if err != nil {
			res[metric] = Fail(FamilyConnectivity, metric, err)
			continue
		}
		res[metric] = cc.bandMean(metric, freqs, coh, b)
	}
}

// phase fills plv_<band> and wpli_<band> from the connectivity strategy
func (cc *CrossChannel) phase(x, y []float64, res results) {
	var ps *PhaseSpectrum
	err := Guard(FamilyConnectivity, "phase", func() (float64, error) {
		var err error
		ps, err = cc.connectivity.Estimate(x, y)
		return 0, err
	}).Err

	for _, b := range cc.registry.Bands() {
		plv, wpli := "plv_"+b.Name, "wpli_"+b.Name
		if err != nil {
			res[plv] = Fail(FamilyConnectivity, plv, err)
			res[wpli] = Fail(FamilyConnectivity, wpli, err)
			continue
		}
		res[plv] = cc.bandMean(plv, ps.Freqs, ps.PLV, b)
		res[wpli] = cc.bandMean(wpli, ps.Freqs, ps.WPLI, b)
	}
}

func (cc *CrossChannel) bandMean(metric string, freqs, values []float64, b bands.Band) Result {
	mean, ok := cc.bandPower.Mean(freqs, values, b.Low, b.High)
	if !ok {
		return Fail(FamilyConnectivity, metric, fmt.Errorf("no defined bins in %s band", b.Name))
	}
	return Ok(mean)
}
