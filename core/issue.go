package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/ingest"
	"github.com/huangsam/auditor/internal/llm"
	"github.com/huangsam/auditor/internal/metrics"
	"github.com/huangsam/auditor/internal/notify"
	"github.com/huangsam/auditor/internal/outwriter"
	"github.com/huangsam/auditor/schema"
)

// ErrNoIssueDescription is returned when the issue command has nothing to analyze.
var ErrNoIssueDescription = errors.New("an issue description is required")

// ExecuteIssue asks the language model to analyze a reported facility issue and publishes
// the answer to the facility webhook. Unlike audit, a model failure fails the command.
func ExecuteIssue(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	analysis, err := GetIssueAnalysis(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteIssue(analysis, cfg); err != nil {
		return err
	}
	if cfg.Publish {
		m := metrics.New()
		now := time.Now()
		publish(ctx, cfg, m, notify.FacilityCategory, schema.IssuePayload{
			ReportID:    schema.NewReportID(now),
			Facility:    cfg.Facility,
			Location:    cfg.IssueLocation,
			Department:  cfg.IssueDepartment,
			Description: cfg.IssueDescription,
			Date:        now.UTC(),
			AIAnalysis:  schema.Wrap(analysis),
		})
		writeMetrics(cfg, m)
	}
	return nil
}

// GetIssueAnalysis builds the issue request from cfg and runs it through the analyzer.
// When an input file is given, its observations are passed along as observed conditions.
func GetIssueAnalysis(ctx context.Context, cfg *contract.Config) (*schema.IssueAnalysis, error) {
	if cfg.IssueDescription == "" {
		return nil, ErrNoIssueDescription
	}
	req := llm.IssueRequest{
		Facility:    cfg.Facility,
		Location:    cfg.IssueLocation,
		Department:  cfg.IssueDepartment,
		Description: cfg.IssueDescription,
	}
	if len(cfg.Inputs) > 0 {
		conditions, err := observedConditions(cfg.Inputs[0])
		if err != nil {
			return nil, err
		}
		req.ObservedConditions = conditions
	}

	analyzer, closeFn, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if !shouldSuppressHeader(ctx) {
		printf(cfg, "🤖", "Analyzing issue with %s (%s)\n", cfg.LLMProvider, cfg.LLMModel)
	}
	analysis, err := analyzer.AnalyzeIssue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("issue analysis failed: %w", err)
	}
	return analysis, nil
}

// observedConditions renders the observations of a file as compact JSON.
func observedConditions(path string) (string, error) {
	set, err := ingest.LoadObservations(path)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(set.Observations)
	if err != nil {
		return "", fmt.Errorf("failed to encode observations: %w", err)
	}
	return string(data), nil
}
