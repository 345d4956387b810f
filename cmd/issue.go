package cmd

import (
	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/spf13/cobra"
)

// issueCmd sends a reported facility issue to the language model.
var issueCmd = &cobra.Command{
	Use:   "issue [observations-file]",
	Short: "Analyze a reported facility issue with the language model.",
	Long: `Send a free-text issue report to the configured language model and print its
structured answer: findings, a suggested work order and a supervisor summary.

When an observations file is given, its readings are attached as observed conditions.
Requires --llm-provider and an API key.

Examples:
  # Analyze a short report
  auditor issue --description "Chiller 2 short cycling since Monday" --location "Plant B" --llm-provider gateway

  # Attach the latest readings and publish to the facility webhook
  auditor issue logs/chiller-2.json --description "High condenser temperature" --publish`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteIssue(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot analyze issue", err)
		}
	},
}
