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

// WriteCheckResults outputs gate verdicts, dispatching based on the output format configured.
func WriteCheckResults(results []schema.CheckResult, cfg *contract.Config) error {
	return render(cfg, renderers{
		json: func(w io.Writer) error {
			return writeJSON(w, results)
		},
		csv: func(w io.Writer) error {
			return writeCheckCSV(w, results)
		},
		text: func(w io.Writer) error {
			return writeCheckTable(w, results, cfg)
		},
	})
}

func writeCheckTable(w io.Writer, results []schema.CheckResult, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Source", "Score", "Min", "Status", "Result"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	width := GetMaxTablePathWidth(cfg)
	failed := 0
	var data [][]string
	for _, r := range results {
		if !r.Passed {
			failed++
		}
		data = append(data, []string{
			contract.TruncatePath(r.Source, width),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.MinScore),
			contract.GetColorStatus(r.Status),
			checkVerdict(r.Passed),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if failed == 0 {
		_, err := fmt.Fprintf(w, "%s All %d sources meet the minimum score\n", headerMark(cfg, "✅", "OK"), len(results))
		return err
	}
	_, err := fmt.Fprintf(w, "%s %d of %d sources fall below the minimum score\n", headerMark(cfg, "❌", "FAIL"), failed, len(results))
	return err
}

func writeCheckCSV(w io.Writer, results []schema.CheckResult) error {
	header := []string{"source", "score", "min_score", "status", "passed"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			row := []string{
				r.Source,
				strconv.Itoa(r.Score),
				strconv.Itoa(r.MinScore),
				string(r.Status),
				strconv.FormatBool(r.Passed),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func checkVerdict(passed bool) string {
	if passed {
		return contract.Colorize(contract.LowValue, "PASS")
	}
	return contract.Colorize(contract.CriticalValue, "FAIL")
}
