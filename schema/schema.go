// Package schema has the models, enums and payloads shared by every part of auditor.
package schema

import "time"

// Rule is a field-level validation rule for one monitored system type.
// Min and Max are optional numeric bounds; ExpectedValue is an optional string equality check.
type Rule struct {
	Field         string   `json:"field" yaml:"field"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Required      bool     `json:"required" yaml:"required"`
	ExpectedValue string   `json:"expectedValue,omitempty" yaml:"expectedValue,omitempty"`
}

// Observation is one reading of a physical system, keyed by field name.
// Values are scalars: numbers or strings.
type Observation map[string]any

// Finding is a single rule breach produced by the validator.
type Finding struct {
	Field    string   `json:"field"`
	Value    string   `json:"value"`
	Flag     Flag     `json:"flag"`
	Severity Severity `json:"severity"`
}

// ValidationResult holds the findings of one validation call plus the counts needed to score it.
type ValidationResult struct {
	SystemType  string    `json:"systemType"`
	Supported   bool      `json:"supported"`
	TotalChecks int       `json:"totalChecks"`
	Findings    []Finding `json:"findings"`
}

// AuditReport is the deterministic engine's output for one observation set.
type AuditReport struct {
	Source       string    `json:"source"`
	SystemType   string    `json:"systemType"`
	Supported    bool      `json:"supported"`
	Observations int       `json:"observations"`
	TotalChecks  int       `json:"totalChecks"`
	Findings     []Finding `json:"findings"`
	Score        int       `json:"complianceScore"`
	Status       Status    `json:"status"`
	RulesVersion int       `json:"rulesVersion"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Kind implements Payload.
func (r *AuditReport) Kind() PayloadKind { return AuditPayload }

// CountBySeverity returns how many findings carry the given severity.
func (r *AuditReport) CountBySeverity(sev Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
