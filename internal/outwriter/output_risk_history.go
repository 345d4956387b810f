package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRiskHistoryTable outputs the recorded risk profiles of one employee, oldest first.
func WriteRiskHistoryTable(subjectID string, records []schema.RiskProfileRecord, cfg *contract.Config) error {
	fmtFloat := floatFormatter(cfg.Precision)

	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, schema.NewRiskHistory(subjectID, records))
		},
		csv: func(w io.Writer) error {
			return writeRiskHistoryCSV(w, records, fmtFloat)
		},
		text: func(w io.Writer) error {
			return writeRiskHistoryText(w, subjectID, records, cfg, fmtFloat)
		},
	})
}

func writeRiskHistoryText(w io.Writer, subjectID string, records []schema.RiskProfileRecord, cfg *contract.Config, fmtFloat func(float64) string) error {
	name := subjectID
	if len(records) > 0 && records[len(records)-1].SubjectName != "" {
		name = fmt.Sprintf("%s (%s)", schema.AbbreviateName(records[len(records)-1].SubjectName), subjectID)
	}
	if _, err := fmt.Fprintf(w, "%s Risk history: %s\n", headerMark(cfg, "🗂️ ", "#"), name); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Violations", "Avg severity", "Category", "Cost impact", "Integrity"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			strconv.Itoa(int(r.TotalViolations)),
			fmtFloat(r.AverageSeverity),
			contract.GetColorRisk(schema.RiskCategory(r.RiskCategory)),
			fmtFloat(r.RiskCostImpact),
			fmtFloat(r.EthicalIntegrityIndex),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d recorded assessment(s)\n", len(records))
	return err
}

func writeRiskHistoryCSV(w io.Writer, records []schema.RiskProfileRecord, fmtFloat func(float64) string) error {
	header := []string{
		"run_id", "employee_id", "name", "total_violations", "average_severity",
		"risk_category", "risk_cost_impact", "ethical_integrity_index", "salary",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			row := []string{
				strconv.FormatInt(r.RunID, 10),
				r.SubjectID,
				r.SubjectName,
				strconv.Itoa(int(r.TotalViolations)),
				fmtFloat(r.AverageSeverity),
				r.RiskCategory,
				fmtFloat(r.RiskCostImpact),
				fmtFloat(r.EthicalIntegrityIndex),
				fmtFloat(r.Salary),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
