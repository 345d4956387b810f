// Package parquet provides data structures and functions for exporting auditor
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/parquet-go/parquet-go"
)

// AuditRun represents a single audit, check or risk run with metadata.
// This struct maps to the auditor_runs database table.
type AuditRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Kind is the command that produced the run (audit, check, risk)
	Kind string `parquet:"kind,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// SystemType is the audited system type (nullable for risk runs)
	SystemType *string `parquet:"system_type,optional,snappy"`

	// Subject is the input source or employee the run was about (nullable)
	Subject *string `parquet:"subject,optional,snappy"`

	TotalChecks   int32 `parquet:"total_checks,snappy"`
	TotalFindings int32 `parquet:"total_findings,snappy"`

	// Score is the compliance score (nullable for risk runs)
	Score *int32 `parquet:"score,optional,snappy"`

	// Status is the compliance tier of Score (nullable)
	Status *string `parquet:"status,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Finding is one rule breach recorded for a run.
// This struct maps to the auditor_findings database table.
type Finding struct {
	RunID    int64  `parquet:"run_id,snappy"`
	Seq      int32  `parquet:"seq,snappy"`
	Field    string `parquet:"field,snappy,dict"`
	Value    string `parquet:"value,snappy"`
	Flag     string `parquet:"flag,snappy,dict"`
	Severity string `parquet:"severity,snappy,dict"`
}

// RiskProfile is the stored summary of one risk assessment.
// This struct maps to the auditor_risk_profiles database table.
type RiskProfile struct {
	RunID                 int64   `parquet:"run_id,snappy"`
	SubjectID             string  `parquet:"subject_id,snappy"`
	SubjectName           string  `parquet:"subject_name,snappy"`
	TotalViolations       int32   `parquet:"total_violations,snappy"`
	AverageSeverity       float64 `parquet:"average_severity,snappy"`
	RiskCategory          string  `parquet:"risk_category,snappy,dict"`
	RiskCostImpact        float64 `parquet:"risk_cost_impact,snappy"`
	EthicalIntegrityIndex float64 `parquet:"ethical_integrity_index,snappy"`
	Salary                float64 `parquet:"salary,snappy"`
}

// writeParquet writes rows to a Parquet file whose schema is inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteAuditRunsParquet writes runs to a Parquet file.
func WriteAuditRunsParquet(data []AuditRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFindingsParquet writes findings to a Parquet file.
func WriteFindingsParquet(data []Finding, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRiskProfilesParquet writes risk profiles to a Parquet file.
func WriteRiskProfilesParquet(data []RiskProfile, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertAuditRunRecords converts store records for Parquet export.
func ConvertAuditRunRecords(records []schema.AuditRunRecord) []AuditRun {
	result := make([]AuditRun, len(records))
	for i, r := range records {
		result[i] = AuditRun{
			RunID:         r.RunID,
			Kind:          r.Kind,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			SystemType:    r.SystemType,
			Subject:       r.Subject,
			TotalChecks:   r.TotalChecks,
			TotalFindings: r.TotalFindings,
			Score:         r.Score,
			Status:        r.Status,
			ConfigParams:  r.ConfigParams,
		}
	}
	return result
}

// ConvertFindingRecords converts store records for Parquet export.
func ConvertFindingRecords(records []schema.FindingRecord) []Finding {
	result := make([]Finding, len(records))
	for i, r := range records {
		result[i] = Finding(r)
	}
	return result
}

// ConvertRiskProfileRecords converts store records for Parquet export.
func ConvertRiskProfileRecords(records []schema.RiskProfileRecord) []RiskProfile {
	result := make([]RiskProfile, len(records))
	for i, r := range records {
		result[i] = RiskProfile(r)
	}
	return result
}
