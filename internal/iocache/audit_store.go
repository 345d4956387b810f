package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
)

// Table names for audit history.
const (
	runsTable         = "auditor_runs"
	findingsTable     = "auditor_findings"
	riskProfilesTable = "auditor_risk_profiles"
)

// auditTables lists every audit table in dependency order.
var auditTables = []string{runsTable, findingsTable, riskProfilesTable}

// AuditStoreImpl implements the AuditStore interface.
type AuditStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AuditStore = &AuditStoreImpl{} // Compile-time check

// NewAuditStore creates a new AuditStore with the specified backend.
func NewAuditStore(backend schema.DatabaseBackend, connStr string) (contract.AuditStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &AuditStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	db, err := openSQL(backend, connStr, contract.GetAuditDBFilePath())
	if err != nil {
		return nil, err
	}
	return newAuditStoreWithDB(db, backend)
}

// newAuditStoreWithDB wraps an open connection and makes sure the audit tables exist.
func newAuditStoreWithDB(db *sql.DB, backend schema.DatabaseBackend) (*AuditStoreImpl, error) {
	if err := createAuditTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create audit tables: %w", err)
	}
	return &AuditStoreImpl{db: db, backend: backend}, nil
}

// createAuditTables creates the audit tracking tables.
func createAuditTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range auditTables {
		if _, err := db.Exec(getCreateAuditTableQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateAuditTableQuery returns the CREATE TABLE query for one audit table.
func getCreateAuditTableQuery(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)

	switch table {
	case runsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				kind VARCHAR(32) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				system_type VARCHAR(64),
				subject VARCHAR(255),
				total_checks INT NOT NULL DEFAULT 0,
				total_findings INT NOT NULL DEFAULT 0,
				score INT,
				status VARCHAR(32),
				config_params TEXT
			)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				kind TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				system_type TEXT,
				subject TEXT,
				total_checks INT NOT NULL DEFAULT 0,
				total_findings INT NOT NULL DEFAULT 0,
				score INT,
				status TEXT,
				config_params TEXT
			)`, quoted)
		default: // SQLite
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				kind TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				system_type TEXT,
				subject TEXT,
				total_checks INTEGER NOT NULL DEFAULT 0,
				total_findings INTEGER NOT NULL DEFAULT 0,
				score INTEGER,
				status TEXT,
				config_params TEXT
			)`, quoted)
		}

	case findingsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				seq INT NOT NULL,
				field VARCHAR(128) NOT NULL,
				value VARCHAR(255) NOT NULL,
				flag VARCHAR(255) NOT NULL,
				severity VARCHAR(16) NOT NULL,
				PRIMARY KEY (run_id, seq)
			)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				seq INT NOT NULL,
				field TEXT NOT NULL,
				value TEXT NOT NULL,
				flag TEXT NOT NULL,
				severity TEXT NOT NULL,
				PRIMARY KEY (run_id, seq)
			)`, quoted)
		default: // SQLite
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				seq INTEGER NOT NULL,
				field TEXT NOT NULL,
				value TEXT NOT NULL,
				flag TEXT NOT NULL,
				severity TEXT NOT NULL,
				PRIMARY KEY (run_id, seq)
			)`, quoted)
		}

	default: // riskProfilesTable
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT PRIMARY KEY,
				subject_id VARCHAR(64) NOT NULL,
				subject_name VARCHAR(255) NOT NULL,
				total_violations INT NOT NULL,
				average_severity DOUBLE NOT NULL,
				risk_category VARCHAR(32) NOT NULL,
				risk_cost_impact DOUBLE NOT NULL,
				ethical_integrity_index DOUBLE NOT NULL,
				salary DOUBLE NOT NULL
			)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT PRIMARY KEY,
				subject_id TEXT NOT NULL,
				subject_name TEXT NOT NULL,
				total_violations INT NOT NULL,
				average_severity DOUBLE PRECISION NOT NULL,
				risk_category TEXT NOT NULL,
				risk_cost_impact DOUBLE PRECISION NOT NULL,
				ethical_integrity_index DOUBLE PRECISION NOT NULL,
				salary DOUBLE PRECISION NOT NULL
			)`, quoted)
		default: // SQLite
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY,
				subject_id TEXT NOT NULL,
				subject_name TEXT NOT NULL,
				total_violations INTEGER NOT NULL,
				average_severity REAL NOT NULL,
				risk_category TEXT NOT NULL,
				risk_cost_impact REAL NOT NULL,
				ethical_integrity_index REAL NOT NULL,
				salary REAL NOT NULL
			)`, quoted)
		}
	}
}

// disabled reports whether the store is a no-op.
func (as *AuditStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (as *AuditStoreImpl) BeginRun(kind string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, as.backend)

	var runID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (kind, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quotedTableName)
		err = as.db.QueryRow(query, kind, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (kind, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, kind, formatTime(startTime, as.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (as *AuditStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	if as.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, as.backend)

	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(as.backend, 1))
	start := newTimeScanner(as.backend)
	if err := as.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}
	durationMs := endTime.Sub(*startTime).Milliseconds()

	var score, status any
	if summary.Status != "" {
		score = summary.Score
		status = summary.Status
	}

	b := as.backend
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, system_type = %s, subject = %s,
		total_checks = %s, total_findings = %s, score = %s, status = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(b, 1), placeholder(b, 2), placeholder(b, 3), placeholder(b, 4),
		placeholder(b, 5), placeholder(b, 6), placeholder(b, 7), placeholder(b, 8), placeholder(b, 9))
	args := []any{
		formatTime(endTime, b), durationMs, nullString(summary.SystemType), nullString(summary.Subject),
		summary.TotalChecks, summary.Findings, score, status, runID,
	}
	if _, err := as.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordFindings stores findings in order, numbering them from 1.
func (as *AuditStoreImpl) RecordFindings(runID int64, findings []schema.Finding) error {
	if as.disabled() || len(findings) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, seq, field, value, flag, severity) VALUES (%s)`,
		quoteTableName(findingsTable, as.backend), placeholders(as.backend, 6))

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin findings transaction: %w", err)
	}
	for i, f := range findings {
		if _, err := tx.Exec(query, runID, i+1, f.Field, f.Value, string(f.Flag), string(f.Severity)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert finding %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit findings: %w", err)
	}
	return nil
}

// RecordRiskProfile stores the result of a risk assessment.
func (as *AuditStoreImpl) RecordRiskProfile(runID int64, profile schema.RiskProfile) error {
	if as.disabled() {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, subject_id, subject_name, total_violations, average_severity,
		risk_category, risk_cost_impact, ethical_integrity_index, salary) VALUES (%s)`,
		quoteTableName(riskProfilesTable, as.backend), placeholders(as.backend, 9))
	_, err := as.db.Exec(query, runID, profile.Subject.EmployeeID, profile.Subject.Name, profile.TotalViolations,
		profile.AverageSeverity, string(profile.RiskCategory), profile.RiskCostImpact, profile.EthicalIntegrityIndex,
		profile.Subject.Salary)
	if err != nil {
		return fmt.Errorf("failed to insert risk profile: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AuditStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the audit store.
func (as *AuditStoreImpl) GetStatus() (schema.AuditStatus, error) {
	status := schema.AuditStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
		RunsByKind: make(map[string]int64),
	}
	if as.disabled() {
		return status, nil
	}

	runs := quoteTableName(runsTable, as.backend)

	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := newTimeScanner(as.backend)
		row := as.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastTime, err := last.value()
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = *lastTime

		oldest := newTimeScanner(as.backend)
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestTime, err := oldest.value()
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		status.OldestRunTime = *oldestTime

		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(AVG(score), 0) FROM %s WHERE score IS NOT NULL", runs))
		if err := row.Scan(&status.AverageScore); err != nil {
			return status, fmt.Errorf("failed to get average score: %w", err)
		}

		rows, err := as.db.Query(fmt.Sprintf("SELECT kind, COUNT(*) FROM %s GROUP BY kind", runs))
		if err != nil {
			return status, fmt.Errorf("failed to get runs by kind: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var kind string
			var count int64
			if err := rows.Scan(&kind, &count); err != nil {
				return status, fmt.Errorf("failed to scan runs by kind: %w", err)
			}
			status.RunsByKind[kind] = count
		}
		if err := rows.Err(); err != nil {
			return status, fmt.Errorf("failed to iterate runs by kind: %w", err)
		}
	}

	for _, table := range auditTables {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalFindings = int(status.TableSizes[findingsTable])

	return status, nil
}

// GetAllRuns retrieves all runs from the store, oldest first.
func (as *AuditStoreImpl) GetAllRuns() ([]schema.AuditRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, kind, start_time, end_time, run_duration_ms, system_type, subject,
		total_checks, total_findings, score, status, config_params FROM %s ORDER BY run_id`,
		quoteTableName(runsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AuditRunRecord
	for rows.Next() {
		var record schema.AuditRunRecord
		start := newTimeScanner(as.backend)
		end := newTimeScanner(as.backend)
		if err := rows.Scan(&record.RunID, &record.Kind, start.dest(), end.dest(), &record.RunDurationMs,
			&record.SystemType, &record.Subject, &record.TotalChecks, &record.TotalFindings,
			&record.Score, &record.Status, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time: %w", err)
		}
		record.StartTime = *startTime
		if record.EndTime, err = end.value(); err != nil {
			return nil, fmt.Errorf("failed to parse end time: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return results, nil
}

// GetAllFindings retrieves every stored finding ordered by run and sequence.
func (as *AuditStoreImpl) GetAllFindings() ([]schema.FindingRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, seq, field, value, flag, severity FROM %s ORDER BY run_id, seq`,
		quoteTableName(findingsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FindingRecord
	for rows.Next() {
		var record schema.FindingRecord
		if err := rows.Scan(&record.RunID, &record.Seq, &record.Field, &record.Value, &record.Flag, &record.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}
	return results, nil
}

// GetAllRiskProfiles retrieves every stored risk profile ordered by run.
func (as *AuditStoreImpl) GetAllRiskProfiles() ([]schema.RiskProfileRecord, error) {
	return as.queryRiskProfiles("")
}

// GetRiskProfiles retrieves the stored risk profiles of one subject ordered by run.
func (as *AuditStoreImpl) GetRiskProfiles(subjectID string) ([]schema.RiskProfileRecord, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	return as.queryRiskProfiles("WHERE subject_id = "+placeholder(as.backend, 1), subjectID)
}

func (as *AuditStoreImpl) queryRiskProfiles(where string, args ...any) ([]schema.RiskProfileRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, subject_id, subject_name, total_violations, average_severity,
		risk_category, risk_cost_impact, ethical_integrity_index, salary FROM %s %s ORDER BY run_id`,
		quoteTableName(riskProfilesTable, as.backend), where)
	rows, err := as.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RiskProfileRecord
	for rows.Next() {
		var r schema.RiskProfileRecord
		if err := rows.Scan(&r.RunID, &r.SubjectID, &r.SubjectName, &r.TotalViolations, &r.AverageSeverity,
			&r.RiskCategory, &r.RiskCostImpact, &r.EthicalIntegrityIndex, &r.Salary); err != nil {
			return nil, fmt.Errorf("failed to scan risk profile: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk profiles: %w", err)
	}
	return results, nil
}

// timeScanner reads a timestamp column that SQLite stores as text and the other backends natively.
type timeScanner struct {
	backend schema.DatabaseBackend
	text    sql.NullString
	native  sql.NullTime
}

func newTimeScanner(backend schema.DatabaseBackend) *timeScanner {
	return &timeScanner{backend: backend}
}

func (ts *timeScanner) dest() any {
	if ts.backend == schema.SQLiteBackend {
		return &ts.text
	}
	return &ts.native
}

// value returns nil for NULL columns.
func (ts *timeScanner) value() (*time.Time, error) {
	if ts.backend == schema.SQLiteBackend {
		if !ts.text.Valid {
			return nil, nil
		}
		t, err := parseTime(ts.text.String)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	if !ts.native.Valid {
		return nil, nil
	}
	t := ts.native.Time
	return &t, nil
}

// nullString maps empty strings to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
