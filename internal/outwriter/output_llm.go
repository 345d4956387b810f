package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var errNoAnalysis = errors.New("no analysis to write")

// WriteLLMAnalysis outputs a findings analysis, dispatching based on the output format configured.
func WriteLLMAnalysis(a *schema.LLMAnalysis, cfg *contract.Config) error {
	if a == nil {
		return errNoAnalysis
	}
	fmtFloat := floatFormatter(cfg.Precision)

	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, schema.Wrap(a))
		},
		csv: func(w io.Writer) error {
			return writeLLMAnalysisCSV(w, a, fmtFloat)
		},
		text: func(w io.Writer) error {
			return writeLLMAnalysisText(w, a, cfg, fmtFloat)
		},
	})
}

func writeLLMAnalysisText(w io.Writer, a *schema.LLMAnalysis, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "\n%s AI analysis (%s %s, advisory)\n", headerMark(cfg, "🤖", "#"), a.Provider, a.Model); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Problem", "Severity", "Causes", "Actions", "Risk Cost"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for i, issue := range a.Issues {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			issue.ProblemDetected,
			issue.Severity,
			strings.Join(issue.PossibleCauses, "; "),
			strings.Join(issue.RecommendedActions, "; "),
			fmtFloat(issue.EstimatedRiskCost),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := a.Summary
	_, err := fmt.Fprintf(w, "Model summary: score %s, issues %d, critical flags %d, priority %s\n",
		fmtFloat(s.ComplianceScore), s.NumberOfIssues, s.CriticalFlags, orDash(s.OverallPriority))
	return err
}

func writeLLMAnalysisCSV(w io.Writer, a *schema.LLMAnalysis, fmtFloat func(float64) string) error {
	header := []string{"provider", "model", "problem", "severity", "possible_causes", "recommended_actions", "monitoring", "estimated_risk_cost", "notes"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, issue := range a.Issues {
			row := []string{
				string(a.Provider),
				a.Model,
				issue.ProblemDetected,
				issue.Severity,
				strings.Join(issue.PossibleCauses, "; "),
				strings.Join(issue.RecommendedActions, "; "),
				strings.Join(issue.MonitoringSuggestions, "; "),
				fmtFloat(issue.EstimatedRiskCost),
				issue.Notes,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// WriteIssueAnalysis outputs a free-text issue analysis, dispatching based on the output format configured.
func WriteIssueAnalysis(a *schema.IssueAnalysis, cfg *contract.Config) error {
	if a == nil {
		return errNoAnalysis
	}
	fmtFloat := floatFormatter(cfg.Precision)

	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, schema.Wrap(a))
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"section", "key", "value"}, func(cw *csv.Writer) error {
				for _, row := range issueRows(a, fmtFloat) {
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		},
		text: func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "%s Issue analysis (%s %s, advisory)\n", headerMark(cfg, "🤖", "#"), a.Provider, a.Model); err != nil {
				return err
			}
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Section", "Key", "Value"})
			table.Configure(func(c *tablewriter.Config) {
				c.Row.Alignment.Global = tw.AlignLeft
			})
			if err := table.Bulk(issueRows(a, fmtFloat)); err != nil {
				return err
			}
			return table.Render()
		},
	})
}

// issueRows flattens an issue analysis into section/key/value rows. Empty optional values are skipped.
func issueRows(a *schema.IssueAnalysis, fmtFloat func(float64) string) [][]string {
	f, wo := a.Findings, a.WorkOrder
	rows := [][]string{
		{"findings", "issueSummary", f.IssueSummary},
		{"findings", "rootCause", f.RootCause},
		{"findings", "severityScore", fmtFloat(f.SeverityScore)},
		{"findings", "systemImpact", f.SystemImpact},
		{"findings", "operationalRiskLevel", f.OperationalRiskLevel},
		{"findings", "codeReferences", f.CodeReferences},
		{"workOrder", "department", wo.Department},
		{"workOrder", "description", wo.Description},
		{"workOrder", "priority", wo.Priority},
		{"workOrder", "estimatedCost", wo.EstimatedCost},
		{"workOrder", "optimization", wo.Optimization},
		{"summary", "supervisorSummary", a.SupervisorSummary},
	}
	out := rows[:0]
	for _, r := range rows {
		if r[2] != "" {
			out = append(out, r)
		}
	}
	return out
}
