package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// AuditStatus represents the status of the audit history store.
type AuditStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalFindings int              `json:"total_findings"`
	AverageScore  float64          `json:"average_score"`
	TableSizes    map[string]int64 `json:"table_sizes"`
	RunsByKind    map[string]int64 `json:"runs_by_kind"`
}

// RunSummary is written when a run completes.
type RunSummary struct {
	SystemType  string
	Subject     string
	TotalChecks int
	Findings    int
	Score       int
	Status      string
}

// AuditRunRecord represents a row from the auditor_runs table.
type AuditRunRecord struct {
	RunID         int64
	Kind          string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	SystemType    *string
	Subject       *string
	TotalChecks   int32
	TotalFindings int32
	Score         *int32
	Status        *string
	ConfigParams  *string
}

// FindingRecord represents a row from the auditor_findings table.
type FindingRecord struct {
	RunID    int64
	Seq      int32
	Field    string
	Value    string
	Flag     string
	Severity string
}

// RiskProfileRecord represents a row from the auditor_risk_profiles table.
type RiskProfileRecord struct {
	RunID                 int64   `json:"run_id"`
	SubjectID             string  `json:"subject_id"`
	SubjectName           string  `json:"subject_name"`
	TotalViolations       int32   `json:"total_violations"`
	AverageSeverity       float64 `json:"average_severity"`
	RiskCategory          string  `json:"risk_category"`
	RiskCostImpact        float64 `json:"risk_cost_impact"`
	EthicalIntegrityIndex float64 `json:"ethical_integrity_index"`
	Salary                float64 `json:"salary"`
}

// RiskHistory is the recorded risk profiles of one employee, oldest first.
type RiskHistory struct {
	EmployeeID string              `json:"employeeId"`
	Latest     RiskProfileRecord   `json:"latest"`
	Profiles   []RiskProfileRecord `json:"profiles"`
}

// NewRiskHistory builds the history of subjectID. Latest is the last record.
func NewRiskHistory(subjectID string, records []RiskProfileRecord) RiskHistory {
	history := RiskHistory{EmployeeID: subjectID, Profiles: records}
	if len(records) > 0 {
		history.Latest = records[len(records)-1]
	}
	return history
}
