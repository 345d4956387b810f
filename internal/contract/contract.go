// Package contract provides interfaces and shared utilities for the auditor CLI's internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/auditor/schema"
)

// CacheManager defines the interface for managing stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetAuditStore() AuditStore
}

// CacheStore defines the interface for key/value cache storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AuditStore defines the interface for tracking audit runs and their results.
type AuditStore interface {
	// BeginRun creates a new run of the given kind and returns its unique ID
	BeginRun(kind string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error

	// RecordFindings stores the findings of an audit run in order
	RecordFindings(runID int64, findings []schema.Finding) error

	// RecordRiskProfile stores the result of a risk assessment run
	RecordRiskProfile(runID int64, profile schema.RiskProfile) error

	// GetStatus returns status information about the audit store
	GetStatus() (schema.AuditStatus, error)

	// GetAllRuns returns every run, oldest first
	GetAllRuns() ([]schema.AuditRunRecord, error)

	// GetAllFindings returns every stored finding
	GetAllFindings() ([]schema.FindingRecord, error)

	// GetAllRiskProfiles returns every stored risk profile
	GetAllRiskProfiles() ([]schema.RiskProfileRecord, error)

	// GetRiskProfiles returns the stored risk profiles of one subject, oldest first
	GetRiskProfiles(subjectID string) ([]schema.RiskProfileRecord, error)

	// Close closes the underlying connection
	Close() error
}
