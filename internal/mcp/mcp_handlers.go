package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/auditor/core"
	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/ingest"
	"github.com/huangsam/auditor/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// scoreResult is the answer of score_findings.
type scoreResult struct {
	TotalChecks int                      `json:"totalChecks"`
	RiskPoints  int                      `json:"riskPoints"`
	Score       int                      `json:"complianceScore"`
	Status      schema.Status            `json:"status"`
	Findings    []schema.EnrichedFinding `json:"findings"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAuditFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Inputs = nil
	for p := range strings.SplitSeq(request.GetString("paths", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Inputs = append(cfg.Inputs, p)
		}
	}
	if len(cfg.Inputs) == 0 {
		return mcp.NewToolResultError("paths is required"), nil
	}
	if st := request.GetString("system_type", ""); st != "" {
		cfg.SystemType = st
	}

	reports, _, err := core.GetAuditResults(core.WithSuppressHeader(ctx), cfg, h.mgr, nil)
	if len(reports) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
	}
	return jsonResult(reports)
}

func (h *toolHandler) handleValidateLogs(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	systemType := request.GetString("system_type", "")
	if systemType == "" {
		return mcp.NewToolResultError("system_type is required"), nil
	}

	set, err := ingest.ParseObservations([]byte(request.GetString("observations", "")), ingest.JSONFormat)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid observations: %v", err)), nil
	}

	report := core.BuildReport(engine.NewValidator(core.RulesFor(cfg)), "inline", systemType, set.Observations)
	return jsonResult(report)
}

func (h *toolHandler) handleScoreFindings(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	totalChecks := request.GetInt("total_checks", 0)
	if totalChecks < 0 {
		return mcp.NewToolResultError("total_checks must not be negative"), nil
	}

	var findings []schema.Finding
	if err := json.Unmarshal([]byte(request.GetString("findings", "")), &findings); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid findings: %v", err)), nil
	}
	for i, f := range findings {
		if _, ok := schema.SeverityWeight[f.Severity]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("finding %d: unknown severity %q", i+1, f.Severity)), nil
		}
	}

	score := engine.Score(totalChecks, findings)
	return jsonResult(scoreResult{
		TotalChecks: totalChecks,
		RiskPoints:  engine.RiskPoints(findings),
		Score:       score,
		Status:      engine.Classify(score),
		Findings:    schema.EnrichFindings(findings),
	})
}

func (h *toolHandler) handleClassifyScore(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	score := request.GetInt("score", -1)
	if score < 0 || score > 100 {
		return mcp.NewToolResultError("score must be between 0 and 100"), nil
	}
	return jsonResult(map[string]any{
		"complianceScore": score,
		"status":          engine.Classify(score),
		"priority":        schema.PriorityForStatus(engine.Classify(score)),
	})
}

func (h *toolHandler) handleAssessRisk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("policy", ""); p != "" {
		cfg.RiskPolicy = schema.RiskPolicy(p)
	}
	if _, ok := schema.ValidRiskPolicies[cfg.RiskPolicy]; cfg.RiskPolicy != "" && !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid policy %q", cfg.RiskPolicy)), nil
	}
	salary := request.GetFloat("salary", cfg.Subject.Salary)
	if salary < 0 {
		return mcp.NewToolResultError("salary must not be negative"), nil
	}
	cfg.Subject.Salary = salary
	if id := request.GetString("employee_id", ""); id != "" {
		cfg.Subject.EmployeeID = id
	}
	if name := request.GetString("name", ""); name != "" {
		cfg.Subject.Name = name
	}

	violations, err := ingest.ParseViolations([]byte(request.GetString("violations", "")), ingest.JSONFormat)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid violations: %v", err)), nil
	}

	table := core.LoadCatalog(core.WithSuppressHeader(ctx), cfg, h.mgr)
	return jsonResult(core.AssessViolations(cfg, table.Enrich(violations)))
}

func (h *toolHandler) handleListRules(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table := core.RulesFor(h.baseCfg)
	out := map[string][]schema.Rule{}
	if st := request.GetString("system_type", ""); st != "" {
		rules, ok := table.Lookup(st)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no rules for system type %q (known: %s)", st, strings.Join(table.SystemTypes(), ", "))), nil
		}
		out[strings.ToLower(st)] = rules
		return jsonResult(out)
	}
	for _, st := range table.SystemTypes() {
		out[st], _ = table.Lookup(st)
	}
	return jsonResult(out)
}

func (h *toolHandler) handleListViolationTypes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table := core.LoadCatalog(ctx, h.baseCfg, h.mgr)
	return jsonResult(map[string]any{
		"source":  table.Source,
		"entries": table.Entries,
	})
}

func (h *toolHandler) handleGetRiskProfile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("employee_id", ""))
	if id == "" {
		return mcp.NewToolResultError("employee_id is required"), nil
	}
	records, err := core.GetRiskHistory(h.mgr, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("risk profile lookup failed: %v", err)), nil
	}
	return jsonResult(schema.NewRiskHistory(id, records))
}
