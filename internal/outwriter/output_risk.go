package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRiskProfile outputs a risk profile, dispatching based on the output format configured.
func WriteRiskProfile(profile schema.RiskProfile, cfg *contract.Config) error {
	fmtFloat := floatFormatter(cfg.Precision)

	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, profile)
		},
		csv: func(w io.Writer) error {
			return writeRiskCSV(w, profile, fmtFloat)
		},
		text: func(w io.Writer) error {
			return writeRiskText(w, profile, cfg, fmtFloat)
		},
	})
}

func writeRiskText(w io.Writer, p schema.RiskProfile, cfg *contract.Config, fmtFloat func(float64) string) error {
	name := schema.AbbreviateName(p.Subject.Name)
	if name == "" {
		name = p.Subject.EmployeeID
	}
	if _, err := fmt.Fprintf(w, "%s Risk profile: %s\n", headerMark(cfg, "🛡️ ", "#"), orDash(name)); err != nil {
		return err
	}

	summary := tablewriter.NewWriter(w)
	summary.Header([]string{"Metric", "Value"})
	summary.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	rows := [][]string{
		{"Policy", string(p.Policy)},
		{"Total violations", fmt.Sprintf("%d", p.TotalViolations)},
		{"Total severity", fmtFloat(p.TotalSeverity)},
		{"Average severity", fmtFloat(p.AverageSeverity)},
		{"Risk category", contract.GetColorRisk(p.RiskCategory)},
		{"Salary", fmtFloat(p.Subject.Salary)},
		{"Risk cost impact", fmtFloat(p.RiskCostImpact)},
		{"Ethical integrity index", fmtFloat(p.EthicalIntegrityIndex)},
	}
	if err := summary.Bulk(rows); err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return err
	}

	if len(p.WorkOrders) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n%s Work order suggestions\n", headerMark(cfg, "🛠️ ", "#")); err != nil {
		return err
	}
	orders := tablewriter.NewWriter(w)
	orders.Header([]string{"Violation", "Code", "Department", "Priority", "Action"})
	orders.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, wo := range p.WorkOrders {
		data = append(data, []string{wo.Violation, orDash(wo.Code), string(wo.Department), string(wo.Priority), wo.Action})
	}
	if err := orders.Bulk(data); err != nil {
		return err
	}
	if err := orders.Render(); err != nil {
		return err
	}

	for _, insight := range p.EquipmentIntelligence {
		if _, err := fmt.Fprintf(w, "Equipment (%s): %s\n", insight.Violation, strings.Join(insight.Suggestions, "; ")); err != nil {
			return err
		}
	}
	return nil
}

// writeRiskCSV writes one row per violation with the profile totals repeated.
func writeRiskCSV(w io.Writer, p schema.RiskProfile, fmtFloat func(float64) string) error {
	header := []string{
		"employee_id", "name", "violation", "code", "percent", "category",
		"priority", "department", "average_severity", "risk_category",
		"risk_cost_impact", "ethical_integrity_index",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, v := range p.Violations {
			var priority, dept string
			if i < len(p.WorkOrders) {
				priority = string(p.WorkOrders[i].Priority)
				dept = string(p.WorkOrders[i].Department)
			}
			row := []string{
				p.Subject.EmployeeID,
				p.Subject.Name,
				v.Type,
				v.Code,
				fmtFloat(v.Percent),
				v.Category,
				priority,
				dept,
				fmtFloat(p.AverageSeverity),
				string(p.RiskCategory),
				fmtFloat(p.RiskCostImpact),
				fmtFloat(p.EthicalIntegrityIndex),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
