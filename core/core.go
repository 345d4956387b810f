// Package core wires the deterministic engine to inputs, persistence, outputs and the
// optional collaborators (language model analysis and outbound sinks).
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/llm"
	"github.com/huangsam/auditor/internal/metrics"
	"github.com/huangsam/auditor/internal/notify"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// Collaborator constructors. Tests replace them with fakes.
var (
	newAnalyzer = func(ctx context.Context, cfg *contract.Config) (llm.Analyzer, func(), error) {
		return llm.NewAnalyzer(ctx, llmOptions(cfg))
	}
	newDispatcher = func(cfg *contract.Config, m *metrics.Metrics) *notify.Dispatcher {
		return notify.NewDispatcher(cfg, m, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	}
)

// llmOptions extracts the language model settings from the config.
func llmOptions(cfg *contract.Config) llm.Options {
	return llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		Endpoint: cfg.LLMEndpoint,
		APIKey:   cfg.LLMAPIKey,
		Timeout:  cfg.LLMTimeout,
	}
}

// RulesFor returns the configured rule table, or the built-in one when none was loaded.
func RulesFor(cfg *contract.Config) engine.RuleTable {
	if len(cfg.Rules.SystemTypes()) == 0 {
		return engine.DefaultRuleTable()
	}
	return cfg.Rules
}

// auditStore returns the audit store of mgr, tolerating a nil manager.
func auditStore(mgr contract.CacheManager) contract.AuditStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetAuditStore()
}

// cacheStore returns the cache store of mgr, tolerating a nil manager.
func cacheStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetCacheStore()
}

// publish sends payload through a dispatcher built from cfg. Delivery failures are warnings.
func publish(ctx context.Context, cfg *contract.Config, m *metrics.Metrics, category string, payloads ...any) {
	if !cfg.Publish {
		return
	}
	d := newDispatcher(cfg, m)
	defer func() { _ = d.Close() }()
	if !d.Enabled() {
		contract.LogWarn("Publish skipped", fmt.Errorf("no report url, webhook or kafka topic configured"))
		return
	}
	for _, p := range payloads {
		if err := d.Publish(ctx, category, p); err != nil {
			contract.LogWarn("Publish failed", err)
		}
	}
	if !shouldSuppressHeader(ctx) {
		printf(cfg, "📤", "Published %d %s payload(s)\n", len(payloads), category)
	}
}

// writeMetrics writes the metrics textfile when one is configured.
func writeMetrics(cfg *contract.Config, m *metrics.Metrics) {
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		contract.LogWarn("Metrics export failed", err)
	}
}

// printf prints a progress line to stdout, prefixed with emoji when enabled.
func printf(cfg *contract.Config, emoji, format string, args ...any) {
	if cfg.UseEmojis {
		format = emoji + " " + format
	}
	fmt.Printf(format, args...)
}

// logAuditHeader prints what is about to be audited.
func logAuditHeader(cfg *contract.Config, sources []string) {
	systemType := cfg.SystemType
	if systemType == "" {
		systemType = "from input"
	}
	printf(cfg, "🔎", "Sources: %d (System: %s)\n", len(sources), systemType)
	printf(cfg, "📋", "Rules: version %d (%s)\n", RulesFor(cfg).Version(), strings.Join(RulesFor(cfg).SystemTypes(), ", "))
}
