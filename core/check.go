package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/metrics"
	"github.com/huangsam/auditor/internal/outwriter"
	"github.com/huangsam/auditor/schema"
)

// ErrCheckFailed is returned when at least one source scores below the minimum.
var ErrCheckFailed = errors.New("compliance check failed")

// ExecuteCheck runs the audit as a CI gate. Unreadable sources and sources scoring below
// cfg.MinScore both fail the check.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	m := metrics.New()
	results, err := GetCheckResults(ctx, cfg, mgr, m)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteCheck(results, cfg); err != nil {
		return err
	}
	writeMetrics(cfg, m)
	return CheckOutcome(results)
}

// GetCheckResults audits the inputs and judges each report against cfg.MinScore.
func GetCheckResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, m *metrics.Metrics) ([]schema.CheckResult, error) {
	reports, _, err := GetAuditResults(ctx, cfg, mgr, m)
	if err != nil {
		return nil, err
	}
	results := make([]schema.CheckResult, len(reports))
	for i, r := range reports {
		results[i] = schema.NewCheckResult(r, cfg.MinScore)
	}
	return results, nil
}

// CheckOutcome returns ErrCheckFailed, wrapped with the failure count, when any result failed.
func CheckOutcome(results []schema.CheckResult) error {
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d sources below minimum score", ErrCheckFailed, failed, len(results))
	}
	return nil
}
