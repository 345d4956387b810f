package schema

import (
	"fmt"
	"time"
)

// ExportFlags tells the downstream dashboard what to do with a report.
type ExportFlags struct {
	SendToPortal bool `json:"Send_to_Portal"`
	GeneratePDF  bool `json:"Generate_PDF"`
	SendEmail    bool `json:"Send_Email"`
}

// SummaryMetrics condenses an audit for dashboards.
type SummaryMetrics struct {
	TotalIssues     int    `json:"Total_Issues"`
	CriticalCount   int    `json:"Critical_Count"`
	ComplianceScore int    `json:"Compliance_Score"`
	OverallPriority string `json:"Overall_Priority"`
}

// ReportPayload is the JSON document posted to the reporting sink for a facility audit.
// EngineResult and AIAnalysis are kept apart on purpose.
type ReportPayload struct {
	ReportID         string         `json:"Report_ID"`
	Facility         string         `json:"Facility"`
	Auditor          string         `json:"Auditor"`
	Date             time.Time      `json:"Date"`
	ComplianceIssues []Finding      `json:"Compliance_Issues"`
	SummaryMetrics   SummaryMetrics `json:"SummaryMetrics"`
	EngineResult     Envelope       `json:"Engine_Result"`
	AIAnalysis       *Envelope      `json:"AI_Analysis,omitempty"`
	Export           ExportFlags    `json:"Export"`
}

// EmployeeViolation is the outbound form of a violation.
type EmployeeViolation struct {
	Type        string  `json:"Type"`
	Code        string  `json:"Code,omitempty"`
	Category    string  `json:"Category,omitempty"`
	Percent     float64 `json:"Percent"`
	Description string  `json:"Description,omitempty"`
}

// EmployeePayload is the JSON document posted for a subject's risk profile.
type EmployeePayload struct {
	EmployeeID            string              `json:"Employee_ID"`
	Name                  string              `json:"Name"`
	Department            string              `json:"Department"`
	Violations            []EmployeeViolation `json:"Violations"`
	TotalViolations       int                 `json:"Total_Violations"`
	TotalViolationPercent float64             `json:"Total_Violation_%"`
	AverageSeverity       float64             `json:"Average_Severity"`
	RiskCategory          RiskCategory        `json:"Risk_Category"`
	Salary                float64             `json:"Salary"`
	RiskCostImpact        float64             `json:"Risk_Cost_Impact"`
	EthicalIntegrityIndex float64             `json:"Ethical_Integrity_Index"`
	WorkOrderSuggestions  []WorkOrder         `json:"Work_Order_Suggestions"`
	EquipmentIntelligence []EquipmentInsight  `json:"Equipment_Intelligence"`
	Supervisor            string              `json:"Supervisor"`
	Facility              string              `json:"Facility"`
	Date                  time.Time           `json:"Date"`
	Shift                 string              `json:"Shift"`
	EngineResult          Envelope            `json:"Engine_Result"`
}

// IssuePayload is the JSON document posted for a free-text issue analysis.
type IssuePayload struct {
	ReportID    string    `json:"Report_ID"`
	Facility    string    `json:"Facility"`
	Location    string    `json:"Location"`
	Department  string    `json:"Department"`
	Description string    `json:"Issue_Description"`
	Date        time.Time `json:"Date"`
	AIAnalysis  Envelope  `json:"AI_Analysis"`
}

// NewReportID builds a report identifier from a timestamp.
func NewReportID(now time.Time) string {
	return fmt.Sprintf("NS-COMP-%d", now.UnixMilli())
}

// PriorityForStatus maps a compliance status to a dashboard priority.
func PriorityForStatus(status Status) string {
	switch status {
	case CriticalStatus:
		return string(HighPriority)
	case ReviewStatus:
		return string(MediumPriority)
	default:
		return string(LowPriority)
	}
}

// NewReportPayload builds the reporting sink document for an audit.
// ai may be nil when no language model analysis was requested.
func NewReportPayload(report *AuditReport, facility, auditor string, ai Payload, now time.Time) ReportPayload {
	findings := report.Findings
	if findings == nil {
		findings = []Finding{}
	}
	payload := ReportPayload{
		ReportID:         NewReportID(now),
		Facility:         facility,
		Auditor:          auditor,
		Date:             now.UTC(),
		ComplianceIssues: findings,
		SummaryMetrics: SummaryMetrics{
			TotalIssues:     len(report.Findings),
			CriticalCount:   report.CountBySeverity(SevereSeverity),
			ComplianceScore: report.Score,
			OverallPriority: PriorityForStatus(report.Status),
		},
		EngineResult: Wrap(report),
		Export:       ExportFlags{SendToPortal: true, GeneratePDF: true, SendEmail: true},
	}
	if ai != nil {
		env := Wrap(ai)
		payload.AIAnalysis = &env
	}
	return payload
}

// NewEmployeePayload builds the employee webhook document for a risk profile.
func NewEmployeePayload(profile *RiskProfile) EmployeePayload {
	violations := make([]EmployeeViolation, len(profile.Violations))
	for i, v := range profile.Violations {
		violations[i] = EmployeeViolation{
			Type:        v.Type,
			Code:        v.Code,
			Category:    v.Category,
			Percent:     v.Percent,
			Description: v.Description,
		}
	}
	s := profile.Subject
	return EmployeePayload{
		EmployeeID:            s.EmployeeID,
		Name:                  s.Name,
		Department:            s.Department,
		Violations:            violations,
		TotalViolations:       profile.TotalViolations,
		TotalViolationPercent: profile.TotalSeverity,
		AverageSeverity:       profile.AverageSeverity,
		RiskCategory:          profile.RiskCategory,
		Salary:                s.Salary,
		RiskCostImpact:        profile.RiskCostImpact,
		EthicalIntegrityIndex: profile.EthicalIntegrityIndex,
		WorkOrderSuggestions:  profile.WorkOrders,
		EquipmentIntelligence: profile.EquipmentIntelligence,
		Supervisor:            s.Supervisor,
		Facility:              s.Facility,
		Date:                  s.Date.UTC(),
		Shift:                 s.Shift,
		EngineResult:          Wrap(profile),
	}
}

// MessageKey returns the key used to partition the report on message buses.
func (p ReportPayload) MessageKey() string { return p.ReportID }

// MessageKey returns the key used to partition the payload on message buses.
func (p EmployeePayload) MessageKey() string { return p.EmployeeID }

// MessageKey returns the key used to partition the payload on message buses.
func (p IssuePayload) MessageKey() string { return p.ReportID }
