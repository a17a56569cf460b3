// Package metrics exports drift reports and weather observations as
// Prometheus gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"driftwatch/internal/drift"
	"driftwatch/internal/ports"
)

// PrometheusSink implements ports.MetricSink on a Prometheus registry.
type PrometheusSink struct {
	psi         *prometheus.GaugeVec
	ksStat      *prometheus.GaugeVec
	ksPValue    *prometheus.GaugeVec
	meanDiff    *prometheus.GaugeVec
	stdDiff     *prometheus.GaugeVec
	severity    *prometheus.GaugeVec
	temperature prometheus.Gauge
}

var _ ports.MetricSink = (*PrometheusSink)(nil)

// NewPrometheusSink registers the drift gauges on the given registerer.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	featureGauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "driftwatch",
			Name:      name,
			Help:      help,
		}, []string{"feature"})
	}

	sink := &PrometheusSink{
		psi:      featureGauge("feature_psi", "Population Stability Index of the feature."),
		ksStat:   featureGauge("feature_ks_statistic", "Two-sample Kolmogorov-Smirnov statistic of the feature."),
		ksPValue: featureGauge("feature_ks_p_value", "Asymptotic p-value of the KS statistic."),
		meanDiff: featureGauge("feature_mean_diff", "Absolute mean difference between reference and current samples."),
		stdDiff:  featureGauge("feature_std_diff", "Absolute population-stddev difference between samples."),
		severity: featureGauge("feature_drift_severity", "Drift severity class: 0 none, 1 moderate, 2 significant."),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "driftwatch",
			Name:      "weather_temperature_celsius",
			Help:      "Last temperature observed through the weather proxy.",
		}),
	}

	reg.MustRegister(sink.psi, sink.ksStat, sink.ksPValue, sink.meanDiff, sink.stdDiff, sink.severity, sink.temperature)
	return sink
}

// RecordDrift publishes one feature's report.
func (s *PrometheusSink) RecordDrift(feature string, report drift.Report) {
	s.psi.WithLabelValues(feature).Set(report.PSI)
	s.ksStat.WithLabelValues(feature).Set(report.KSStatistic)
	s.ksPValue.WithLabelValues(feature).Set(report.KSPValue)
	s.meanDiff.WithLabelValues(feature).Set(report.MeanDiff)
	s.stdDiff.WithLabelValues(feature).Set(report.StdDiff)
	s.severity.WithLabelValues(feature).Set(severityLevel(report.Severity))
}

// RecordTemperature tracks the latest proxied temperature reading.
func (s *PrometheusSink) RecordTemperature(celsius float64) {
	s.temperature.Set(celsius)
}

func severityLevel(severity drift.Severity) float64 {
	switch severity {
	case drift.SeveritySignificant:
		return 2
	case drift.SeverityModerate:
		return 1
	default:
		return 0
	}
}
