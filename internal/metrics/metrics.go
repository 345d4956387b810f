// Package metrics keeps run counters in a private Prometheus registry that can be written
// out in the text exposition format for a node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auditor"

// Metrics holds every collector of one process. A nil *Metrics ignores all calls.
type Metrics struct {
	registry *prometheus.Registry

	findings        *prometheus.CounterVec
	audits          *prometheus.CounterVec
	scores          *prometheus.HistogramVec
	riskAssessments *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	deliveryTime    *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings produced by the validator by severity and system type.",
		}, []string{"severity", "system_type"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Audited observation sets by compliance status.",
		}, []string{"status"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compliance_score",
			Help:      "Distribution of compliance scores.",
			Buckets:   []float64{50, 60, 70, 80, 90, 95, 100},
		}, []string{"system_type"}),
		riskAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "Risk assessments by resulting category.",
		}, []string{"category"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_deliveries_total",
			Help:      "Payload deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		deliveryTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sink_delivery_duration_seconds",
			Help:      "Histogram of payload delivery durations by sink.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}
	m.registry.MustRegister(m.findings, m.audits, m.scores, m.riskAssessments, m.deliveries, m.deliveryTime)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAudit records one audit report.
func (m *Metrics) ObserveAudit(report *schema.AuditReport) {
	if m == nil || report == nil {
		return
	}
	systemType := report.SystemType
	if systemType == "" {
		systemType = "unknown"
	}
	for _, f := range report.Findings {
		m.findings.WithLabelValues(string(f.Severity), systemType).Inc()
	}
	m.audits.WithLabelValues(string(report.Status)).Inc()
	m.scores.WithLabelValues(systemType).Observe(float64(report.Score))
}

// ObserveRisk records one risk assessment.
func (m *Metrics) ObserveRisk(profile *schema.RiskProfile) {
	if m == nil || profile == nil {
		return
	}
	m.riskAssessments.WithLabelValues(string(profile.RiskCategory)).Inc()
}

// ObserveDelivery records one sink delivery attempt.
func (m *Metrics) ObserveDelivery(sink string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.deliveries.WithLabelValues(sink, outcome).Inc()
	m.deliveryTime.WithLabelValues(sink).Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
