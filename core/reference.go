package core

import (
	"context"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/outwriter"
)

// ExecuteRules prints the active rule table, severity weights and status tiers.
// This is a static display that does not read any input.
func ExecuteRules(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.NewOutWriter().WriteRules(RulesFor(cfg), cfg)
}

// ExecuteCatalog prints the violation-type table from the remote export, the cache or the
// built-in fallback, whichever is current.
func ExecuteCatalog(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	table := LoadCatalog(ctx, cfg, mgr)
	return outwriter.NewOutWriter().WriteCatalog(table.Entries, string(table.Source), cfg)
}
