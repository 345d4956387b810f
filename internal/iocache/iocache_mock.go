package iocache

import (
	"time"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetCacheStore implements the CacheManager interface.
func (m *MockCacheManager) GetCacheStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetAuditStore implements the CacheManager interface.
func (m *MockCacheManager) GetAuditStore() contract.AuditStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.AuditStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAuditStore is a mock implementation of AuditStore for testing.
type MockAuditStore struct {
	mock.Mock
}

var _ contract.AuditStore = &MockAuditStore{} // Compile-time check

// BeginRun implements the AuditStore interface.
func (m *MockAuditStore) BeginRun(kind string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(kind, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the AuditStore interface.
func (m *MockAuditStore) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	args := m.Called(runID, endTime, summary)
	return args.Error(0)
}

// RecordFindings implements the AuditStore interface.
func (m *MockAuditStore) RecordFindings(runID int64, findings []schema.Finding) error {
	args := m.Called(runID, findings)
	return args.Error(0)
}

// RecordRiskProfile implements the AuditStore interface.
func (m *MockAuditStore) RecordRiskProfile(runID int64, profile schema.RiskProfile) error {
	args := m.Called(runID, profile)
	return args.Error(0)
}

// GetStatus implements the AuditStore interface.
func (m *MockAuditStore) GetStatus() (schema.AuditStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.AuditStatus), args.Error(1)
}

// GetAllRuns implements the AuditStore interface.
func (m *MockAuditStore) GetAllRuns() ([]schema.AuditRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.AuditRunRecord)
	return runs, args.Error(1)
}

// GetAllFindings implements the AuditStore interface.
func (m *MockAuditStore) GetAllFindings() ([]schema.FindingRecord, error) {
	args := m.Called()
	findings, _ := args.Get(0).([]schema.FindingRecord)
	return findings, args.Error(1)
}

// GetAllRiskProfiles implements the AuditStore interface.
func (m *MockAuditStore) GetAllRiskProfiles() ([]schema.RiskProfileRecord, error) {
	args := m.Called()
	profiles, _ := args.Get(0).([]schema.RiskProfileRecord)
	return profiles, args.Error(1)
}

// GetRiskProfiles implements the AuditStore interface.
func (m *MockAuditStore) GetRiskProfiles(subjectID string) ([]schema.RiskProfileRecord, error) {
	args := m.Called(subjectID)
	profiles, _ := args.Get(0).([]schema.RiskProfileRecord)
	return profiles, args.Error(1)
}

// Close implements the AuditStore interface.
func (m *MockAuditStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
