package features

import (
	"math"

	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
)

var nan = math.NaN()

var timeMetrics = []string{
	"amp_max", "amp_min", "amp_p2p", "amp_mean", "amp_rms",
	"stat_mean", "stat_std", "stat_variance", "stat_median", "stat_skewness", "stat_kurtosis",
	"zcr", "slope_mean", "peak_count", "peak_mean_height",
	"hjorth_mobility", "hjorth_complexity",
}

// TimeMetrics returns the Family A metric names
func TimeMetrics() []string {
	return append([]string(nil), timeMetrics...)
}

// FrequencyMetrics returns the Family B metric names for a band registry
func FrequencyMetrics(reg *bands.Registry) []string {
	names := reg.Names()
	metrics := []string{"pow_total"}
	for _, b := range names {
		metrics = append(metrics, "pow_abs_"+b)
	}
	for _, b := range names {
		metrics = append(metrics, "pow_rel_"+b)
	}
	return append(metrics,
		"peak_freq_hz", "centroid_hz", "sef90_hz", "spec_entropy", "spec_flatness",
		"aperiodic_exponent", "aperiodic_offset",
		"ratio_theta_beta", "ratio_engagement", "ratio_delta_alpha", "ratio_alpha_beta",
	)
}

// NonlinearMetrics returns the Family C metric names for a band registry
func NonlinearMetrics(reg *bands.Registry) []string {
	metrics := []string{
		"sampen", "perm_ent", "svd_ent",
		"higuchi_fd", "petrosian_fd", "katz_fd",
		"lzc", "dfa", "alpha_burst_rate",
	}
	for _, b := range reg.Names() {
		metrics = append(metrics, "powvar_"+b)
	}
	return metrics
}

// CrossChannelMetrics returns the Family D metric names of one channel pair
func CrossChannelMetrics(reg *bands.Registry) []string {
	names := reg.Names()
	metrics := []string{"pearson_corr"}
	for _, prefix := range []string{"coh_", "plv_", "wpli_", "asym_"} {
		for _, b := range names {
			metrics = append(metrics, prefix+b)
		}
	}
	return metrics
}

// ChannelPrefix returns the key prefix of a per-channel family
func ChannelPrefix(channel, family string) string {
	return channel + "_" + family
}

// Pair is an ordered channel pair, Left before Right in channel order
type Pair struct {
	I, J        int
	Left, Right string
}

// Pairs returns every pair i < j of channels
func Pairs(channels []string) []Pair {
	var pairs []Pair
	for i := range channels {
		for j := i + 1; j < len(channels); j++ {
			pairs = append(pairs, Pair{I: i, J: j, Left: channels[i], Right: channels[j]})
		}
	}
	return pairs
}

// pairPrefix qualifies cross-channel metrics only when there is more than
// one pair
func pairPrefix(pairs []Pair, p Pair) string {
	if len(pairs) <= 1 {
		return ""
	}
	return p.Left + "_" + p.Right
}

// Schema returns the ordered feature columns for a configuration
func Schema(cfg config.Config) ([]string, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return schemaFor(cfg.Channels, reg), nil
}

func schemaFor(channels []string, reg *bands.Registry) []string {
	var columns []string
	families := []struct {
		tag     string
		metrics []string
	}{
		{FamilyTime, timeMetrics},
		{FamilyFrequency, FrequencyMetrics(reg)},
		{FamilyNonlinear, NonlinearMetrics(reg)},
	}

	for _, ch := range channels {
		for _, f := range families {
			prefix := ChannelPrefix(ch, f.tag)
			for _, m := range f.metrics {
				columns = append(columns, prefix+"_"+m)
			}
		}
	}

	pairs := Pairs(channels)
	conn := CrossChannelMetrics(reg)
	for _, p := range pairs {
		prefix := FamilyConnectivity
		if q := pairPrefix(pairs, p); q != "" {
			prefix += "_" + q
		}
		for _, m := range conn {
			columns = append(columns, prefix+"_"+m)
		}
	}
	return columns
}
