package iocache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAuditExportValidation(t *testing.T) {
	assert.Error(t, ExecuteAuditExport(&MockAuditStore{}, ""))
	assert.Error(t, ExecuteAuditExport(nil, "out"))

	store := &MockAuditStore{}
	store.On("GetStatus").Return(schema.AuditStatus{Backend: "sqlite"}, nil)
	err := ExecuteAuditExport(store, filepath.Join(t.TempDir(), "out"))
	assert.ErrorContains(t, err, "no audit data")
	store.AssertExpectations(t)
}

func TestExecuteAuditExportWithMock(t *testing.T) {
	store := &MockAuditStore{}
	store.On("GetStatus").Return(schema.AuditStatus{Backend: "sqlite", TotalRuns: 1}, nil)
	store.On("GetAllRuns").Return([]schema.AuditRunRecord{{RunID: 1, Kind: "audit", StartTime: time.Now()}}, nil)
	store.On("GetAllFindings").Return([]schema.FindingRecord{{RunID: 1, Seq: 1, Field: "oilTemp"}}, nil)
	store.On("GetAllRiskProfiles").Return(nil, nil)

	prefix := filepath.Join(t.TempDir(), "history")
	require.NoError(t, ExecuteAuditExport(store, prefix))

	for _, suffix := range []string{".runs.parquet", ".findings.parquet", ".risk_profiles.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	store.AssertExpectations(t)
}

func TestExecuteAuditExportFromSQLite(t *testing.T) {
	store := newSQLiteAuditStore(t)
	runID, err := store.BeginRun("audit", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordFindings(runID, []schema.Finding{{Field: "stackTemp", Value: "700", Flag: schema.AboveLimitFlag, Severity: schema.SevereSeverity}}))

	prefix := filepath.Join(t.TempDir(), "export")
	require.NoError(t, ExecuteAuditExport(store, prefix))
	_, err = os.Stat(prefix + ".findings.parquet")
	assert.NoError(t, err)
}

func TestExecuteAuditExportStoreError(t *testing.T) {
	store := &MockAuditStore{}
	store.On("GetStatus").Return(schema.AuditStatus{TotalRuns: 1}, nil)
	store.On("GetAllRuns").Return(nil, assert.AnError)

	err := ExecuteAuditExport(store, filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "GetAllFindings")
}
