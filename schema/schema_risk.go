package schema

import "time"

// Violation is a named breach attributed to one subject, weighted by Percent in [0,1].
type Violation struct {
	Type        string  `json:"type" yaml:"type"`
	Code        string  `json:"code,omitempty" yaml:"code,omitempty"`
	Percent     float64 `json:"percent" yaml:"percent"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string  `json:"category,omitempty" yaml:"category,omitempty"`
	Notes       string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ViolationType is one row of the reference violation-type table.
type ViolationType struct {
	Type        string  `json:"type"`
	Code        string  `json:"code,omitempty"`
	Percent     float64 `json:"percent"`
	Severity    string  `json:"severity,omitempty"`
	Category    string  `json:"category,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Subject identifies the person a risk profile is computed for.
type Subject struct {
	EmployeeID string    `json:"employeeId,omitempty" yaml:"employeeId,omitempty"`
	Name       string    `json:"name,omitempty" yaml:"name,omitempty"`
	Department string    `json:"department,omitempty" yaml:"department,omitempty"`
	Salary     float64   `json:"salary" yaml:"salary"`
	Supervisor string    `json:"supervisor,omitempty" yaml:"supervisor,omitempty"`
	Facility   string    `json:"facility,omitempty" yaml:"facility,omitempty"`
	Date       time.Time `json:"date" yaml:"date"`
	Shift      string    `json:"shift,omitempty" yaml:"shift,omitempty"`
}

// WorkOrder is a suggested corrective task for one violation.
type WorkOrder struct {
	Violation  string     `json:"violation"`
	Code       string     `json:"code,omitempty"`
	Department Department `json:"department"`
	Priority   Priority   `json:"priority"`
	Action     string     `json:"action"`
}

// EquipmentInsight attaches equipment-specific suggestions to one violation.
type EquipmentInsight struct {
	Violation   string   `json:"violation"`
	Suggestions []string `json:"suggestions"`
}

// RiskProfile is the per-subject aggregate produced by the risk engine.
type RiskProfile struct {
	Subject               Subject            `json:"subject"`
	Policy                RiskPolicy         `json:"policy"`
	Violations            []Violation        `json:"violations"`
	TotalViolations       int                `json:"totalViolations"`
	TotalSeverity         float64            `json:"totalSeverity"`
	AverageSeverity       float64            `json:"averageSeverity"`
	RiskCategory          RiskCategory       `json:"riskCategory"`
	RiskCostImpact        float64            `json:"riskCostImpact"`
	EthicalIntegrityIndex float64            `json:"ethicalIntegrityIndex"`
	WorkOrders            []WorkOrder        `json:"workOrderSuggestions"`
	EquipmentIntelligence []EquipmentInsight `json:"equipmentIntelligence"`
}

// Kind implements Payload.
func (p *RiskProfile) Kind() PayloadKind { return RiskPayload }
