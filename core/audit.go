package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/ingest"
	"github.com/huangsam/auditor/internal/llm"
	"github.com/huangsam/auditor/internal/metrics"
	"github.com/huangsam/auditor/internal/notify"
	"github.com/huangsam/auditor/internal/outwriter"
	"github.com/huangsam/auditor/schema"
)

// ErrNoSources is returned when the inputs expand to no readable files.
var ErrNoSources = errors.New("no observation files found")

// auditResult is one worker's output for one source.
type auditResult struct {
	index  int
	report schema.AuditReport
	err    error
}

// ExecuteAudit validates, scores and classifies every input, then optionally asks the
// language model for an advisory analysis and publishes the reports. Sources that fail to
// load do not stop the others but make the returned error non-nil.
func ExecuteAudit(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	m := metrics.New()
	reports, duration, loadErr := GetAuditResults(ctx, cfg, mgr, m)
	if len(reports) == 0 {
		return loadErr
	}
	if loadErr != nil {
		contract.LogWarn("Some sources could not be audited", loadErr)
	}
	warnUnsupported(reports)

	if err := outwriter.NewOutWriter().WriteAudit(reports, cfg, duration); err != nil {
		return err
	}

	analyses := make([]*schema.LLMAnalysis, len(reports))
	if cfg.UseAI {
		analyses = analyzeReports(ctx, cfg, reports)
	}

	if cfg.Publish {
		payloads := make([]any, len(reports))
		for i := range reports {
			var ai schema.Payload
			if analyses[i] != nil {
				ai = analyses[i]
			}
			payloads[i] = schema.NewReportPayload(&reports[i], cfg.Facility, cfg.Auditor, ai, time.Now())
		}
		publish(ctx, cfg, m, notify.ComplianceCategory, payloads...)
	}

	writeMetrics(cfg, m)
	return loadErr
}

// GetAuditResults audits every input concurrently and returns the reports in input order.
// Sources that fail to load are reported through the joined error; the remaining
// reports are still returned.
func GetAuditResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, m *metrics.Metrics) ([]schema.AuditReport, time.Duration, error) {
	start := time.Now()

	sources, err := ingest.ExpandPaths(cfg.Inputs, cfg.Excludes)
	if err != nil {
		return nil, 0, err
	}
	if len(sources) == 0 {
		return nil, 0, ErrNoSources
	}
	if !shouldSuppressHeader(ctx) {
		logAuditHeader(cfg, sources)
	}

	validator := engine.NewValidator(RulesFor(cfg))
	results := auditSources(ctx, cfg, validator, sources)

	reports := make([]schema.AuditReport, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		reports = append(reports, r.report)
	}

	for i := range reports {
		m.ObserveAudit(&reports[i])
		recordAudit(cfg, auditStore(mgr), &reports[i])
	}
	return reports, time.Since(start), errors.Join(errs...)
}

// auditSources processes all sources in parallel using a worker pool.
// It spawns cfg.Workers goroutines and returns results ordered like sources.
func auditSources(ctx context.Context, cfg *contract.Config, validator *engine.Validator, sources []string) []auditResult {
	workers := max(cfg.Workers, 1)
	sourceCh := make(chan int, len(sources))
	resultCh := make(chan auditResult, len(sources))
	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for i := range sourceCh {
				if err := ctx.Err(); err != nil {
					resultCh <- auditResult{index: i, err: err}
					continue
				}
				report, err := auditSource(cfg, validator, sources[i])
				resultCh <- auditResult{index: i, report: report, err: err}
			}
		})
	}

	for i := range sources {
		sourceCh <- i
	}
	close(sourceCh)

	wg.Wait()
	close(resultCh)

	results := make([]auditResult, len(sources))
	for r := range resultCh {
		results[r.index] = r
	}
	return results
}

// auditSource loads one observation file and runs the engine over it.
// The configured system type wins over one declared by the file.
func auditSource(cfg *contract.Config, validator *engine.Validator, path string) (schema.AuditReport, error) {
	set, err := ingest.LoadObservations(path)
	if err != nil {
		return schema.AuditReport{}, fmt.Errorf("%s: %w", path, err)
	}
	systemType := cfg.SystemType
	if systemType == "" {
		systemType = set.SystemType
	}
	return BuildReport(validator, set.Source, systemType, set.Observations), nil
}

// BuildReport validates observations and scores the result. It never fails: an unknown
// system type yields an unsupported report with no findings and a perfect score.
func BuildReport(validator *engine.Validator, source, systemType string, observations []schema.Observation) schema.AuditReport {
	res := validator.ValidateReport(observations, systemType)
	score := engine.Score(res.TotalChecks, res.Findings)
	findings := res.Findings
	if findings == nil {
		findings = []schema.Finding{}
	}
	return schema.AuditReport{
		Source:       source,
		SystemType:   res.SystemType,
		Supported:    res.Supported,
		Observations: len(observations),
		TotalChecks:  res.TotalChecks,
		Findings:     findings,
		Score:        score,
		Status:       engine.Classify(score),
		RulesVersion: validator.Table().Version(),
		GeneratedAt:  time.Now().UTC(),
	}
}

// recordAudit stores one report as a run in the audit history. Failures are warnings.
func recordAudit(cfg *contract.Config, store contract.AuditStore, report *schema.AuditReport) {
	if store == nil {
		return
	}
	start := time.Now()
	runID, err := store.BeginRun(string(schema.AuditPayload), start, map[string]any{
		"source":        report.Source,
		"system_type":   report.SystemType,
		"rules_version": report.RulesVersion,
		"workers":       cfg.Workers,
	})
	if err != nil {
		contract.LogWarn("Audit tracking initialization failed", err)
		return
	}
	if err := store.RecordFindings(runID, report.Findings); err != nil {
		contract.LogWarn("Failed to record findings", err)
	}
	summary := schema.RunSummary{
		SystemType:  report.SystemType,
		Subject:     report.Source,
		TotalChecks: report.TotalChecks,
		Findings:    len(report.Findings),
		Score:       report.Score,
		Status:      string(report.Status),
	}
	if err := store.EndRun(runID, time.Now(), summary); err != nil {
		contract.LogWarn("Failed to finalize audit tracking", err)
	}
}

// analyzeReports asks the language model about every report with findings. The answers
// are advisory: failures are warnings and the engine result is never touched.
func analyzeReports(ctx context.Context, cfg *contract.Config, reports []schema.AuditReport) []*schema.LLMAnalysis {
	analyses := make([]*schema.LLMAnalysis, len(reports))
	analyzer, closeFn, err := newAnalyzer(ctx, cfg)
	if err != nil {
		contract.LogWarn("AI analysis unavailable", err)
		return analyses
	}
	defer closeFn()

	images := loadImages(cfg.Images)
	for i := range reports {
		r := &reports[i]
		if len(r.Findings) == 0 && len(images) == 0 {
			continue
		}
		analysis, err := analyzer.AnalyzeFindings(ctx, llm.FindingsRequest{
			SystemType: r.SystemType,
			DateRange:  r.GeneratedAt.Format(contract.DateFormat),
			Findings:   r.Findings,
			Images:     images,
		})
		if err != nil {
			contract.LogWarn(fmt.Sprintf("AI analysis failed for %s", r.Source), err)
			continue
		}
		analyses[i] = analysis
		if !shouldSuppressHeader(ctx) {
			if err := outwriter.NewOutWriter().WriteAnalysis(analysis, advisoryConfig(cfg)); err != nil {
				contract.LogWarn("Failed to print AI analysis", err)
			}
		}
	}
	return analyses
}

// loadImages reads the configured photos, skipping the ones that cannot be used.
func loadImages(paths []string) []llm.Image {
	var images []llm.Image
	for _, p := range paths {
		img, err := llm.LoadImage(p)
		if err != nil {
			contract.LogWarn("Skipping image", err)
			continue
		}
		images = append(images, img)
	}
	return images
}

// advisoryConfig prints model output as text on stdout, leaving the main output file alone.
func advisoryConfig(cfg *contract.Config) *contract.Config {
	c := cfg.Clone()
	c.Output = schema.TextOut
	c.OutputFile = ""
	return c
}

// warnUnsupported flags reports whose system type has no rules.
func warnUnsupported(reports []schema.AuditReport) {
	for _, r := range reports {
		if !r.Supported {
			contract.LogWarn(fmt.Sprintf("No rules for system type %q", r.SystemType), fmt.Errorf("%s scored without checks", r.Source))
		}
	}
}
