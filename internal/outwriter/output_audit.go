package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteAuditReports outputs audit reports, dispatching based on the output format configured.
func WriteAuditReports(reports []schema.AuditReport, cfg *contract.Config, duration time.Duration) error {
	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, reports)
		},
		csv: func(w io.Writer) error {
			return writeAuditCSV(w, reports)
		},
		text: func(w io.Writer) error {
			return writeAuditTable(w, reports, cfg, duration)
		},
	})
}

// writeAuditTable writes one summary row per report followed by the findings of each report.
func writeAuditTable(w io.Writer, reports []schema.AuditReport, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Source", "System", "Checks", "Findings", "Score", "Status"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	width := GetMaxTablePathWidth(cfg)
	var data [][]string
	for i, r := range reports {
		system := r.SystemType
		if !r.Supported {
			system += " (unsupported)"
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.Source, width),
			system,
			strconv.Itoa(r.TotalChecks),
			strconv.Itoa(len(r.Findings)),
			strconv.Itoa(r.Score),
			contract.GetColorStatus(r.Status),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, r := range reports {
		if len(r.Findings) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s %s (%s)\n", headerMark(cfg, "🔎", "*"), r.Source, r.SystemType); err != nil {
			return err
		}
		if err := writeFindingsTable(w, r.Findings); err != nil {
			return err
		}
	}

	totalFindings, severe := 0, 0
	for _, r := range reports {
		totalFindings += len(r.Findings)
		severe += r.CountBySeverity(schema.SevereSeverity)
	}
	if _, err := fmt.Fprintf(w, "Audited %d sources (findings: %d, severe: %d)\n", len(reports), totalFindings, severe); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Audit completed in %v with %d workers. Rules version: %d\n", duration, cfg.Workers, rulesVersion(reports)); err != nil {
		return err
	}
	return nil
}

// writeFindingsTable writes the numbered findings of one report.
func writeFindingsTable(w io.Writer, findings []schema.Finding) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Field", "Value", "Flag", "Severity"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, f := range schema.EnrichFindings(findings) {
		data = append(data, []string{
			strconv.Itoa(f.Index),
			f.Field,
			f.Value,
			string(f.Flag),
			contract.GetColorSeverity(f.Severity),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeAuditCSV writes one row per finding. Reports without findings still get a row.
func writeAuditCSV(w io.Writer, reports []schema.AuditReport) error {
	header := []string{"source", "system_type", "supported", "total_checks", "score", "status", "field", "value", "flag", "severity"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			base := []string{
				r.Source,
				r.SystemType,
				strconv.FormatBool(r.Supported),
				strconv.Itoa(r.TotalChecks),
				strconv.Itoa(r.Score),
				string(r.Status),
			}
			if len(r.Findings) == 0 {
				if err := cw.Write(append(base, "", "", "", "")); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
				continue
			}
			for _, f := range r.Findings {
				row := append(append([]string{}, base...), f.Field, f.Value, string(f.Flag), string(f.Severity))
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
		}
		return nil
	})
}

// rulesVersion returns the rules version shared by the reports, or 0 when there are none.
func rulesVersion(reports []schema.AuditReport) int {
	if len(reports) == 0 {
		return 0
	}
	return reports[0].RulesVersion
}

// headerMark returns the emoji when emojis are enabled, otherwise the plain marker.
func headerMark(cfg *contract.Config, emoji, plain string) string {
	if cfg.UseEmojis {
		return emoji
	}
	return plain
}
