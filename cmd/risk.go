package cmd

import (
	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/spf13/cobra"
)

// riskCmd assesses the violation risk of one employee.
var riskCmd = &cobra.Command{
	Use:   "risk <violations-file>",
	Short: "Assess the risk profile of one employee from their violations.",
	Long: `Compute a risk profile from a list of violations attributed to one employee.

Missing weights, codes and categories are filled from the violation-type table
(--catalog-url, cached for --catalog-ttl, with a built-in fallback).

Policies:
- average    - categorize by the mean violation weight (default)
- cumulative - categorize by the summed violation weight

The profile includes the risk cost impact (mean weight times salary), an ethical
integrity index, one suggested work order per violation and equipment suggestions.

Examples:
  # Assess from a JSON file
  auditor risk violations.json --employee-id E-104 --name "Dana Whitfield" --salary 52000

  # Read from stdin and publish to the employee webhook
  cat violations.json | auditor risk - --salary 52000 --publish`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRisk(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run risk assessment", err)
		}
	},
}
