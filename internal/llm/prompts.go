package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const findingsSystemPrompt = `You are a senior facility compliance auditor. Analyze the flagged log data precisely and professionally.

For each flagged item report:
- problemDetected: a short phrase such as "Steam Pressure High"
- severity: Low, Moderate, Severe or Critical
- possibleCauses, recommendedActions and monitoringSuggestions as short lists
- estimatedRiskCost in dollars, based on severity and industry benchmarks
- notes, when data is missing say "Additional log detail needed for full assessment."

Finish with a summary: facility compliance score (0-100), number of issues, number of critical flags
and an overall priority of Low, Medium or High.`

const imageSystemPrompt = `You are a facility compliance and diagnostic auditor inspecting photos of mechanical and HVAC equipment
(boilers, chillers, compressors, pumps, plant rooms).

Detect the equipment type, nameplates, gauges, corrosion, soot, leaks, flame color and general condition.
Read any visible gauges or displays and compare them with normal ranges:
- boiler stack temperature 350-550 F
- steam pressure 60-120 psi
- water hardness 0-50 ppm
- chiller discharge temperature 90-120 F

Start the compliance score at 100 and deduct 5-15 per flagged issue. If a photo is unreadable, say so in the notes.`

const issueSystemPrompt = `You are a facility compliance intelligence assistant.

For the reported issue:
1. Classify it by severity (0-100), root cause, system impact and operational risk level (Emergency, High, Medium, Low).
2. Cite OSHA, EPA or code references when relevant.
3. Recommend a work order: department (HVAC, Boiler, Chiller, Electrical, Structural, Plumbing, Safety, EHS),
   description, priority, estimated cost impact and a preventive optimization step.
4. Write a two to three sentence supervisor review board summary.

Always answer with the full structure. Never refuse to analyze.`

// findingsPrompt picks the system prompt and user text for a findings analysis.
func findingsPrompt(req FindingsRequest) (system, user string) {
	var b strings.Builder
	if len(req.Images) > 0 {
		b.WriteString("Analyze these facility equipment images for compliance issues.\n")
		if req.SystemType != "" {
			fmt.Fprintf(&b, "System Type: %s\n", req.SystemType)
		}
		if req.DateRange != "" {
			fmt.Fprintf(&b, "Date Range: %s\n", req.DateRange)
		}
		if len(req.Findings) > 0 {
			if data, err := json.MarshalIndent(req.Findings, "", "  "); err == nil {
				fmt.Fprintf(&b, "Additional Context:\n%s\n", data)
			}
		}
		b.WriteString("Provide a detailed compliance analysis for each visible issue.")
		return imageSystemPrompt, b.String()
	}

	fmt.Fprintf(&b, "Analyze this %s system compliance data", orUnknown(req.SystemType))
	if req.DateRange != "" {
		fmt.Fprintf(&b, " from %s", req.DateRange)
	}
	b.WriteString(":\n\nFindings:\n")
	if len(req.Findings) == 0 {
		b.WriteString("- none\n")
	}
	for _, f := range req.Findings {
		fmt.Fprintf(&b, "- %s: %s (%s) - Severity: %s\n", f.Field, f.Value, f.Flag, f.Severity)
	}
	b.WriteString("\nProvide a detailed analysis for each issue and an overall summary.")
	return findingsSystemPrompt, b.String()
}

// issuePrompt builds the user text for an issue analysis.
func issuePrompt(req IssueRequest) string {
	return fmt.Sprintf("Facility: %s\nLocation: %s\nDepartment: %s\n\nIssue Description:\n%s\n\nObserved Conditions:\n%s",
		req.Facility, req.Location, req.Department, req.Description, req.ObservedConditions)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
