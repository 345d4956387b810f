package schema

// LLMIssue is one issue reported by the language model for a findings analysis.
type LLMIssue struct {
	ProblemDetected       string   `json:"problemDetected"`
	Severity              string   `json:"severity"`
	PossibleCauses        []string `json:"possibleCauses"`
	RecommendedActions    []string `json:"recommendedActions"`
	MonitoringSuggestions []string `json:"monitoringSuggestions"`
	EstimatedRiskCost     float64  `json:"estimatedRiskCost"`
	Notes                 string   `json:"notes,omitempty"`
}

// LLMSummary is the language model's overall verdict for a findings analysis.
type LLMSummary struct {
	ComplianceScore float64 `json:"complianceScore"`
	NumberOfIssues  int     `json:"numberOfIssues"`
	CriticalFlags   int     `json:"criticalFlags"`
	OverallPriority string  `json:"overallPriority"`
}

// LLMAnalysis is the opaque, model-generated counterpart of an AuditReport.
// It is never reconciled with the deterministic result.
type LLMAnalysis struct {
	Provider LLMProvider `json:"provider"`
	Model    string      `json:"model"`
	Issues   []LLMIssue  `json:"issues"`
	Summary  LLMSummary  `json:"summary"`
}

// Kind implements Payload.
func (a *LLMAnalysis) Kind() PayloadKind { return LLMFindingsPayload }

// IssueFindings is the classification part of a free-text issue analysis.
type IssueFindings struct {
	IssueSummary         string  `json:"issueSummary"`
	RootCause            string  `json:"rootCause"`
	SeverityScore        float64 `json:"severityScore"`
	SystemImpact         string  `json:"systemImpact"`
	OperationalRiskLevel string  `json:"operationalRiskLevel"`
	CodeReferences       string  `json:"codeReferences,omitempty"`
}

// IssueWorkOrder is the model's suggested work order for a free-text issue.
type IssueWorkOrder struct {
	Department    string `json:"department"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	EstimatedCost string `json:"estimatedCost"`
	Optimization  string `json:"optimization,omitempty"`
}

// IssueAnalysis is the language model's structured answer to a reported issue.
type IssueAnalysis struct {
	Provider          LLMProvider    `json:"provider"`
	Model             string         `json:"model"`
	Findings          IssueFindings  `json:"findings"`
	WorkOrder         IssueWorkOrder `json:"workOrder"`
	SupervisorSummary string         `json:"supervisorSummary"`
}

// Kind implements Payload.
func (a *IssueAnalysis) Kind() PayloadKind { return LLMIssuePayload }

// IssueDepartments lists the departments an issue analysis may route to.
var IssueDepartments = []string{"HVAC", "Boiler", "Chiller", "Electrical", "Structural", "Plumbing", "Safety", "EHS"}
