package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAudit(t *testing.T) {
	m := New()
	m.ObserveAudit(&schema.AuditReport{
		SystemType: "boiler",
		Score:      67,
		Status:     schema.CriticalStatus,
		Findings: []schema.Finding{
			{Severity: schema.SevereSeverity},
			{Severity: schema.SevereSeverity},
			{Severity: schema.MinorSeverity},
		},
	})
	m.ObserveAudit(&schema.AuditReport{Score: 100, Status: schema.CompliantStatus})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.findings.WithLabelValues("Severe", "boiler")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.findings.WithLabelValues("Minor", "boiler")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.audits.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.audits.WithLabelValues("compliant")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.scores))
}

func TestObserveRiskAndDelivery(t *testing.T) {
	m := New()
	m.ObserveRisk(&schema.RiskProfile{RiskCategory: schema.HighRisk})
	m.ObserveDelivery("webhook", nil, time.Millisecond)
	m.ObserveDelivery("webhook", assert.AnError, time.Millisecond)
	m.ObserveDelivery("webhook", assert.AnError, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.riskAssessments.WithLabelValues("High Risk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("webhook", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries.WithLabelValues("webhook", "failure")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAudit(&schema.AuditReport{})
		m.ObserveRisk(&schema.RiskProfile{})
		m.ObserveDelivery("kafka", nil, 0)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveAudit(&schema.AuditReport{SystemType: "chiller", Score: 95, Status: schema.CompliantStatus})

	path := filepath.Join(t.TempDir(), "auditor.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `auditor_audits_total{status="compliant"} 1`)
	assert.Contains(t, string(data), "auditor_compliance_score_bucket")

	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}
