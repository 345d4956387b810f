// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Auditor MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Facility Compliance Auditor",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: audit_files ---
	s.AddTool(mcp.NewTool("audit_files",
		mcp.WithDescription("Audit observation log files or folders against the compliance rules."),
		mcp.WithString("paths", mcp.Description("Comma-separated files or folders to audit."), mcp.Required()),
		mcp.WithString("system_type", mcp.Description("System type applied to every file, overriding the one in the file.")),
	), h.handleAuditFiles)

	// --- 2. Tool: validate_logs ---
	s.AddTool(mcp.NewTool("validate_logs",
		mcp.WithDescription("Validate inline observations for one system type and return the scored report."),
		mcp.WithString("system_type", mcp.Description("System type of the observations (e.g. boiler, chiller, compressor)."), mcp.Required()),
		mcp.WithString("observations", mcp.Description("JSON list of observation objects, or an object with systemType and observations."), mcp.Required()),
	), h.handleValidateLogs)

	// --- 3. Tool: score_findings ---
	s.AddTool(mcp.NewTool("score_findings",
		mcp.WithDescription("Compute the compliance score and status tier for a list of findings."),
		mcp.WithString("findings", mcp.Description("JSON list of findings with field, value, flag and severity."), mcp.Required()),
		mcp.WithNumber("total_checks", mcp.Description("Number of rule checks the findings came from."), mcp.Required()),
	), h.handleScoreFindings)

	// --- 4. Tool: classify_score ---
	s.AddTool(mcp.NewTool("classify_score",
		mcp.WithDescription("Map a compliance score (0-100) to its status tier."),
		mcp.WithNumber("score", mcp.Description("Compliance score between 0 and 100."), mcp.Required()),
	), h.handleClassifyScore)

	// --- 5. Tool: assess_risk ---
	s.AddTool(mcp.NewTool("assess_risk",
		mcp.WithDescription("Assess the risk profile of one employee from their violations."),
		mcp.WithString("violations", mcp.Description("JSON list of violations with type and optional percent, code and category."), mcp.Required()),
		mcp.WithNumber("salary", mcp.Description("Annual salary used for the risk cost impact.")),
		mcp.WithString("policy", mcp.Description("Risk policy. Defaults to 'average'."), mcp.Enum("average", "cumulative")),
		mcp.WithString("employee_id", mcp.Description("Employee identifier copied into the profile.")),
		mcp.WithString("name", mcp.Description("Employee name copied into the profile.")),
	), h.handleAssessRisk)

	// --- 6. Tool: list_rules ---
	s.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the active compliance rules, optionally for one system type."),
		mcp.WithString("system_type", mcp.Description("Only return the rules of this system type.")),
	), h.handleListRules)

	// --- 7. Tool: list_violation_types ---
	s.AddTool(mcp.NewTool("list_violation_types",
		mcp.WithDescription("List the violation types used to fill in missing violation weights."),
	), h.handleListViolationTypes)

	// --- 8. Tool: get_risk_profile ---
	s.AddTool(mcp.NewTool("get_risk_profile",
		mcp.WithDescription("Look up the risk profiles recorded for one employee in the audit history, oldest first."),
		mcp.WithString("employee_id", mcp.Description("Employee identifier to look up."), mcp.Required()),
	), h.handleGetRiskProfile)

	return s
}

// StartMCPServer starts the Auditor MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
