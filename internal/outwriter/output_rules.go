package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ruleRow is the flattened form of one rule used by CSV and JSON output.
type ruleRow struct {
	SystemType    string   `json:"systemType"`
	Field         string   `json:"field"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Required      bool     `json:"required"`
	ExpectedValue string   `json:"expectedValue,omitempty"`
}

// rulesDocument is the JSON form of a rule table.
type rulesDocument struct {
	Version         int                     `json:"version"`
	Rules           []ruleRow               `json:"rules"`
	SeverityWeights map[schema.Severity]int `json:"severityWeights"`
	Thresholds      map[schema.Status]int   `json:"thresholds"`
}

// WriteRuleTable outputs the rule table, dispatching based on the output format configured.
func WriteRuleTable(table engine.RuleTable, cfg *contract.Config) error {
	rows := flattenRules(table)

	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, rulesDocument{
				Version:         table.Version(),
				Rules:           rows,
				SeverityWeights: schema.SeverityWeight,
				Thresholds: map[schema.Status]int{
					schema.CompliantStatus: engine.CompliantThreshold,
					schema.ReviewStatus:    engine.ReviewThreshold,
				},
			})
		},
		csv: func(w io.Writer) error {
			return writeRulesCSV(w, rows)
		},
		text: func(w io.Writer) error {
			return writeRulesText(w, table.Version(), rows, cfg)
		},
	})
}

func flattenRules(table engine.RuleTable) []ruleRow {
	rules := table.Rules()
	var rows []ruleRow
	for _, systemType := range table.SystemTypes() {
		for _, r := range rules[systemType] {
			rows = append(rows, ruleRow{
				SystemType:    systemType,
				Field:         r.Field,
				Min:           r.Min,
				Max:           r.Max,
				Required:      r.Required,
				ExpectedValue: r.ExpectedValue,
			})
		}
	}
	return rows
}

func writeRulesText(w io.Writer, version int, rows []ruleRow, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "%s Compliance rules (version %d)\n", headerMark(cfg, "📋", "#"), version); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"System", "Field", "Min", "Max", "Required", "Expected"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			r.SystemType,
			r.Field,
			formatBound(r.Min),
			formatBound(r.Max),
			strconv.FormatBool(r.Required),
			orDash(r.ExpectedValue),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Severity weights: %s=%d %s=%d %s=%d\n",
		schema.MinorSeverity, schema.SeverityWeight[schema.MinorSeverity],
		schema.ModerateSeverity, schema.SeverityWeight[schema.ModerateSeverity],
		schema.SevereSeverity, schema.SeverityWeight[schema.SevereSeverity]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Status tiers: %s >= %d, %s >= %d, otherwise %s\n",
		schema.CompliantStatus, engine.CompliantThreshold,
		schema.ReviewStatus, engine.ReviewThreshold,
		schema.CriticalStatus)
	return err
}

func writeRulesCSV(w io.Writer, rows []ruleRow) error {
	header := []string{"system_type", "field", "min", "max", "required", "expected_value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			row := []string{
				r.SystemType,
				r.Field,
				formatBoundCSV(r.Min),
				formatBoundCSV(r.Max),
				strconv.FormatBool(r.Required),
				r.ExpectedValue,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func formatBound(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBoundCSV(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
