// Package outwriter renders audit, risk, analysis and reference results as text tables,
// CSV or JSON.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAudit prints audit reports using the configured output format.
func (ow *OutWriter) WriteAudit(reports []schema.AuditReport, cfg *contract.Config, duration time.Duration) error {
	return WriteAuditReports(reports, cfg, duration)
}

// WriteCheck prints pass/fail results against the configured minimum score.
func (ow *OutWriter) WriteCheck(results []schema.CheckResult, cfg *contract.Config) error {
	return WriteCheckResults(results, cfg)
}

// WriteRisk prints a risk profile using the configured output format.
func (ow *OutWriter) WriteRisk(profile schema.RiskProfile, cfg *contract.Config) error {
	return WriteRiskProfile(profile, cfg)
}

// WriteRiskHistory prints the recorded risk profiles of one employee.
func (ow *OutWriter) WriteRiskHistory(subjectID string, records []schema.RiskProfileRecord, cfg *contract.Config) error {
	return WriteRiskHistoryTable(subjectID, records, cfg)
}

// WriteAnalysis prints a language model findings analysis.
func (ow *OutWriter) WriteAnalysis(analysis *schema.LLMAnalysis, cfg *contract.Config) error {
	return WriteLLMAnalysis(analysis, cfg)
}

// WriteIssue prints a language model issue analysis.
func (ow *OutWriter) WriteIssue(analysis *schema.IssueAnalysis, cfg *contract.Config) error {
	return WriteIssueAnalysis(analysis, cfg)
}

// WriteRules prints the active rule table and the severity weights.
func (ow *OutWriter) WriteRules(table engine.RuleTable, cfg *contract.Config) error {
	return WriteRuleTable(table, cfg)
}

// WriteCatalog prints the violation-type table along with where it came from.
func (ow *OutWriter) WriteCatalog(entries []schema.ViolationType, source string, cfg *contract.Config) error {
	return WriteCatalogTable(entries, source, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for source paths in table output
// based on terminal width.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Index + System + Checks + Findings + Score + Status with borders/padding
	baseWidth := 60

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
