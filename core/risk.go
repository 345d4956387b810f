package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/catalog"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/ingest"
	"github.com/huangsam/auditor/internal/metrics"
	"github.com/huangsam/auditor/internal/notify"
	"github.com/huangsam/auditor/internal/outwriter"
	"github.com/huangsam/auditor/schema"
)

// ErrNoViolationsFile is returned when the risk command has no input.
var ErrNoViolationsFile = errors.New("a violations file is required")

// ErrHistoryDisabled is returned by lookups that need the audit history when none is configured.
var ErrHistoryDisabled = errors.New("audit history is disabled, set --audit-backend to enable it")

// ErrSubjectNotFound is returned when no risk profile was recorded for a subject.
var ErrSubjectNotFound = errors.New("no risk profiles recorded")

// ExecuteRisk assesses a subject's violations and publishes the profile to the employee webhook.
func ExecuteRisk(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	m := metrics.New()
	profile, err := GetRiskResults(ctx, cfg, mgr, m)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteRisk(profile, cfg); err != nil {
		return err
	}
	if cfg.Publish {
		publish(ctx, cfg, m, notify.EmployeeCategory, schema.NewEmployeePayload(&profile))
	}
	writeMetrics(cfg, m)
	return nil
}

// GetRiskResults loads the violations named by the first input, fills missing fields from
// the violation-type catalog and runs the risk engine.
func GetRiskResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, m *metrics.Metrics) (schema.RiskProfile, error) {
	if len(cfg.Inputs) == 0 {
		return schema.RiskProfile{}, ErrNoViolationsFile
	}
	violations, err := ingest.LoadViolations(cfg.Inputs[0])
	if err != nil {
		return schema.RiskProfile{}, err
	}

	table := LoadCatalog(ctx, cfg, mgr)
	if !shouldSuppressHeader(ctx) {
		printf(cfg, "📚", "Violation types: %d (source: %s)\n", len(table.Entries), table.Source)
	}

	profile := AssessViolations(cfg, table.Enrich(violations))
	m.ObserveRisk(&profile)
	recordRisk(auditStore(mgr), &profile)
	return profile, nil
}

// AssessViolations runs the risk engine for the configured subject and policy.
func AssessViolations(cfg *contract.Config, violations []schema.Violation) schema.RiskProfile {
	policy := cfg.RiskPolicy
	if policy == "" {
		policy = schema.AveragePolicy
	}
	profile := engine.NewRiskEngine(policy).AssessRisk(violations, cfg.Subject.Salary)
	profile.Subject = cfg.Subject
	return profile
}

// LoadCatalog returns the violation-type table. Fetch failures are warnings.
func LoadCatalog(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) catalog.Table {
	table := catalog.NewClient(cfg.CatalogURL, cfg.CatalogTTL, cacheStore(mgr)).Load(ctx)
	if table.FetchErr != nil {
		contract.LogWarn("Using built-in violation types", table.FetchErr)
	}
	return table
}

// recordRisk stores a risk profile as a run in the audit history. Failures are warnings.
func recordRisk(store contract.AuditStore, profile *schema.RiskProfile) {
	if store == nil {
		return
	}
	subject := profile.Subject.EmployeeID
	if subject == "" {
		subject = profile.Subject.Name
	}
	runID, err := store.BeginRun(string(schema.RiskPayload), time.Now(), map[string]any{
		"policy":  string(profile.Policy),
		"subject": subject,
	})
	if err != nil {
		contract.LogWarn("Risk tracking initialization failed", err)
		return
	}
	if err := store.RecordRiskProfile(runID, *profile); err != nil {
		contract.LogWarn("Failed to record risk profile", err)
	}
	summary := schema.RunSummary{
		Subject:  subject,
		Findings: profile.TotalViolations,
	}
	if err := store.EndRun(runID, time.Now(), summary); err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to finalize risk run %d", runID), err)
	}
}

// ExecuteRiskHistory prints the recorded risk profiles of the employee named by the first input.
func ExecuteRiskHistory(_ context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("an employee ID is required")
	}
	subjectID := cfg.Inputs[0]
	records, err := GetRiskHistory(mgr, subjectID)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRiskHistory(subjectID, records, cfg)
}

// GetRiskHistory returns the stored risk profiles of one employee, oldest first.
func GetRiskHistory(mgr contract.CacheManager, subjectID string) ([]schema.RiskProfileRecord, error) {
	store := auditStore(mgr)
	if store == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := store.GetRiskProfiles(subjectID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for employee %q", ErrSubjectNotFound, subjectID)
	}
	return records, nil
}
