// Package drift compares two numeric samples of a feature and scores how far
// the current distribution has moved from the reference one. It is pure
// computation over in-memory slices: no I/O, no shared state, safe to call
// concurrently for any number of features.
package drift

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidInput marks malformed arguments: an empty sample or a
// non-positive bucket count. It is never retried; the computation is
// deterministic, so a failed call fails again.
var ErrInvalidInput = errors.New("drift: invalid input")

// Severity classifies how strongly a feature has drifted.
type Severity string

const (
	SeverityNone        Severity = "NONE"
	SeverityModerate    Severity = "MODERATE"
	SeveritySignificant Severity = "SIGNIFICANT"
)

// Config carries the binning and threshold policy. The defaults are the
// conventional PSI bands (0.1 moderate, 0.2 significant) and the 5%
// significance level for the KS p-value.
type Config struct {
	Buckets        int     `yaml:"buckets"`
	ModeratePSI    float64 `yaml:"moderatePsi"`
	SignificantPSI float64 `yaml:"significantPsi"`
	Alpha          float64 `yaml:"alpha"`
}

// DefaultConfig returns the fixed policy constants.
func DefaultConfig() Config {
	return Config{
		Buckets:        10,
		ModeratePSI:    0.1,
		SignificantPSI: 0.2,
		Alpha:          0.05,
	}
}

// Report is the outcome of one feature comparison. MeanDiff and StdDiff are
// informational only; Severity depends on PSI and KSPValue alone.
type Report struct {
	PSI         float64  `json:"psi"`
	KSStatistic float64  `json:"ks_statistic"`
	KSPValue    float64  `json:"ks_p_value"`
	MeanDiff    float64  `json:"mean_diff"`
	StdDiff     float64  `json:"std_diff"`
	Severity    Severity `json:"severity"`
}

// Classify applies the threshold table in precedence order: significant when
// PSI exceeds the significant band or the KS p-value falls under alpha,
// moderate when PSI exceeds the moderate band, none otherwise. PSI bounds are
// strict greater-than; the alpha bound is strict less-than.
func Classify(psi, ksPValue float64, cfg Config) Severity {
	switch {
	case psi > cfg.SignificantPSI || ksPValue < cfg.Alpha:
		return SeveritySignificant
	case psi > cfg.ModeratePSI:
		return SeverityModerate
	default:
		return SeverityNone
	}
}

// Evaluate builds the full drift report for one feature: PSI, the KS test,
// absolute mean and population-stddev deltas, and the severity class.
func Evaluate(reference, current []float64, cfg Config) (Report, error) {
	psi, err := PSI(reference, current, cfg.Buckets)
	if err != nil {
		return Report{}, err
	}

	statistic, pValue, err := KolmogorovSmirnov(reference, current)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		PSI:         psi,
		KSStatistic: statistic,
		KSPValue:    pValue,
		MeanDiff:    math.Abs(stat.Mean(reference, nil) - stat.Mean(current, nil)),
		StdDiff:     math.Abs(stat.PopStdDev(reference, nil) - stat.PopStdDev(current, nil)),
		Severity:    Classify(psi, pValue, cfg),
	}
	return report, nil
}

// Metrics flattens the report into named scalar metrics for a sink, keyed the
// way the tracking backend expects them. The feature label should already be
// sanitized by the caller.
func (r Report) Metrics(feature string) map[string]float64 {
	return map[string]float64{
		"psi_" + feature:       r.PSI,
		"ks_stat_" + feature:   r.KSStatistic,
		"ks_pvalue_" + feature: r.KSPValue,
		"mean_diff_" + feature: r.MeanDiff,
		"std_diff_" + feature:  r.StdDiff,
	}
}
