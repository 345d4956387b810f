package cmd

import (
	"errors"

	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check <file-or-folder>...",
	Short: "Enforce a minimum compliance score (fails build on violations)",
	Long: `Audit the inputs and fail with a non-zero exit code when any source scores below
--min-score or cannot be read.

Default minimum score: 70 (the lower bound of the review tier)

Use cases:
- Nightly gates on exported equipment logs
- Blocking a shift handover while a system is in the critical tier

Examples:
  # Require every source to be at least in the review tier
  auditor check logs/

  # Require compliant status
  auditor check logs/ --min-score 90`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := core.ExecuteCheck(rootCtx, cfg, cacheManager)
		if errors.Is(err, core.ErrCheckFailed) {
			contract.LogFatal("Policy check failed", err)
		}
		if err != nil {
			contract.LogFatal("Cannot run check", err)
		}
	},
}
