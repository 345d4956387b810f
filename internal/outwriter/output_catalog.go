package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteCatalogTable outputs the violation-type table, dispatching based on the output format configured.
func WriteCatalogTable(entries []schema.ViolationType, source string, cfg *contract.Config) error {
	fmtFloat := floatFormatter(cfg.Precision)
	header := []string{"type", "code", "percent", "severity", "category", "notes", "description"}

	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, struct {
				Source  string                 `json:"source"`
				Entries []schema.ViolationType `json:"entries"`
			}{Source: source, Entries: entries})
		},
		csv: func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, e := range entries {
					row := []string{e.Type, e.Code, fmtFloat(e.Percent), e.Severity, e.Category, e.Notes, e.Description}
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		},
		text: func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Type", "Code", "Percent", "Category", "Department"})
			table.Configure(func(c *tablewriter.Config) {
				c.Row.Alignment.Global = tw.AlignLeft
			})
			var data [][]string
			for _, e := range entries {
				data = append(data, []string{
					e.Type,
					orDash(e.Code),
					schema.SeverityPercent(e.Percent),
					orDash(e.Category),
					string(engine.DepartmentFor(e.Category)),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "%d violation types (source: %s)\n", len(entries), source)
			return err
		},
	})
}
