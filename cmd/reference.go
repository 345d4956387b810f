package cmd

import (
	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/spf13/cobra"
)

// rulesCmd displays the active rule table.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Display the compliance rules, severity weights and status tiers",
	Long: `Show the rule table used by audit and check, including custom rules loaded
with --rules-file.

No logs are read - this is purely informational.

Examples:
  # Show the built-in rules
  auditor rules

  # Validate and show a custom rule table
  auditor rules --rules-file rules.yaml --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRules(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display rules", err)
		}
	},
}

// catalogCmd displays the violation-type table.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Display the violation-type table used by risk assessments",
	Long: `Show the violation-type table from the remote export, the cache or the built-in
fallback, whichever is current.

Examples:
  # Show the table from a published sheet
  auditor catalog --catalog-url "https://example.com/violation-types.csv"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCatalog(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display catalog", err)
		}
	},
}
