package cmd

import (
	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/spf13/cobra"
)

// auditCmd validates observation logs and scores their compliance.
var auditCmd = &cobra.Command{
	Use:   "audit <file-or-folder>...",
	Short: "Validate observation logs and score their compliance.",
	Long: `Validate equipment observation logs against the compliance rules and score each source.

Every reading is checked against the rules of its system type. Each breach becomes a
finding with a severity, and the findings are turned into a 0-100 compliance score:
- compliant - score of 90 or more
- review    - score of 70 or more
- critical  - anything lower

Inputs can be JSON, YAML or CSV files, or folders containing them.

With --ai the findings are also sent to the configured language model for an advisory
analysis. The model never changes the score. With --publish the reports are delivered
to the report URL, the compliance webhook and the Kafka topic.

Examples:
  # Audit a folder of boiler logs
  auditor audit logs/boilers --system-type boiler

  # Audit and ask the model for root causes
  auditor audit logs/chiller-2.json --ai --llm-provider gemini

  # Export findings to CSV for tracking
  auditor audit logs --output csv --output-file findings.csv`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAudit(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run audit", err)
		}
	},
}
