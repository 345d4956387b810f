//go:build basic

// Package integration contains integration tests for auditor.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolatedEnv(t *testing.T) []string {
	return []string{"HOME=" + t.TempDir(), "AUDITOR_CACHE_BACKEND=none"}
}

// TestAuditVerification audits the sample logs and verifies the scores.
func TestAuditVerification(t *testing.T) {
	out := filepath.Join(t.TempDir(), "audit.json")
	_, err := runAuditor(t, isolatedEnv(t), "audit", "testdata/logs", "--output", "json", "--output-file", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var reports []schema.AuditReport
	require.NoError(t, json.Unmarshal(data, &reports))
	require.Len(t, reports, 2)

	// boiler: one severe, one moderate and one minor finding over six checks
	assert.Equal(t, "boiler", reports[0].SystemType)
	assert.Len(t, reports[0].Findings, 3)
	assert.Equal(t, 70, reports[0].Score)
	assert.Equal(t, schema.ReviewStatus, reports[0].Status)

	assert.Equal(t, "chiller", reports[1].SystemType)
	assert.Empty(t, reports[1].Findings)
	assert.Equal(t, 100, reports[1].Score)
}

// TestCheckExitCode verifies the gate fails only when a source is below the minimum.
func TestCheckExitCode(t *testing.T) {
	_, err := runAuditor(t, isolatedEnv(t), "check", "testdata/logs", "--min-score", "70")
	require.NoError(t, err)

	out, err := runAuditor(t, isolatedEnv(t), "check", "testdata/logs", "--min-score", "90")
	require.Error(t, err)
	assert.Contains(t, out, "Policy check failed")
	assert.Contains(t, out, "1 of 2 sources below minimum score")
}

// TestRiskVerification assesses the sample violations with the built-in violation types.
func TestRiskVerification(t *testing.T) {
	out := filepath.Join(t.TempDir(), "risk.json")
	_, err := runAuditor(t, isolatedEnv(t), "risk", "testdata/violations.json",
		"--salary", "60000", "--employee-id", "E-42", "--output", "json", "--output-file", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var profile schema.RiskProfile
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.InDelta(t, 0.08, profile.AverageSeverity, 1e-9)
	assert.InDelta(t, 4800, profile.RiskCostImpact, 1e-6)
	assert.Equal(t, schema.GoodStanding, profile.RiskCategory)
	assert.Equal(t, "E-42", profile.Subject.EmployeeID)
}

// TestSQLiteHistory records runs into a SQLite history and exports them.
func TestSQLiteHistory(t *testing.T) {
	env := append(isolatedEnv(t), "AUDITOR_AUDIT_BACKEND=sqlite")

	_, err := runAuditor(t, env, "audit", "testdata/logs", "--output", "csv", "--output-file", filepath.Join(t.TempDir(), "audit.csv"))
	require.NoError(t, err)

	out, err := runAuditor(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	export := filepath.Join(t.TempDir(), "history.parquet")
	_, err = runAuditor(t, env, "history", "export", "--output-file", export)
	require.NoError(t, err)
	assert.FileExists(t, export+".runs.parquet")
	assert.FileExists(t, export+".findings.parquet")

	_, err = runAuditor(t, env, "risk", "testdata/violations.json", "--salary", "60000", "--employee-id", "E-42",
		"--output-file", filepath.Join(t.TempDir(), "risk.txt"))
	require.NoError(t, err)
	profiles := filepath.Join(t.TempDir(), "profiles.json")
	_, err = runAuditor(t, env, "history", "profile", "E-42", "--output", "json", "--output-file", profiles)
	require.NoError(t, err)
	data, err := os.ReadFile(profiles)
	require.NoError(t, err)
	var history schema.RiskHistory
	require.NoError(t, json.Unmarshal(data, &history))
	require.Len(t, history.Profiles, 1)
	assert.Equal(t, "E-42", history.Latest.SubjectID)
	assert.InDelta(t, 0.08, history.Latest.AverageSeverity, 1e-9)

	_, err = runAuditor(t, env, "history", "profile", "E-404")
	assert.Error(t, err)
}

// TestRulesOutput prints the built-in rules as CSV.
func TestRulesOutput(t *testing.T) {
	out, err := runAuditor(t, isolatedEnv(t), "rules", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "boiler,steamPressure")
}
