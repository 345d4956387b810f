package schema

import (
	"encoding/json"
	"fmt"
)

// Payload is any result a consumer can receive. Kind tells which producer built it,
// so deterministic engine output is never mistaken for language model output.
type Payload interface {
	Kind() PayloadKind
}

// Envelope tags a payload with its kind for serialization.
type Envelope struct {
	Kind    PayloadKind `json:"kind"`
	Payload Payload     `json:"payload"`
}

// Wrap builds an envelope for a payload.
func Wrap(p Payload) Envelope {
	return Envelope{Kind: p.Kind(), Payload: p}
}

// UnmarshalJSON decodes the payload into the concrete type named by kind.
// An empty kind or a null payload decodes to an envelope without a payload.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind    PayloadKind     `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == "" || len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		*e = Envelope{Kind: raw.Kind}
		return nil
	}

	var p Payload
	switch raw.Kind {
	case AuditPayload:
		p = &AuditReport{}
	case RiskPayload:
		p = &RiskProfile{}
	case LLMFindingsPayload:
		p = &LLMAnalysis{}
	case LLMIssuePayload:
		p = &IssueAnalysis{}
	default:
		return fmt.Errorf("unknown payload kind %q", raw.Kind)
	}
	if err := json.Unmarshal(raw.Payload, p); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", raw.Kind, err)
	}
	e.Kind = raw.Kind
	e.Payload = p
	return nil
}

// EnrichedFinding adds presentation data to a Finding.
type EnrichedFinding struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Finding
}

// GetSeverityLabel returns a plain text label for a finding severity.
func GetSeverityLabel(sev Severity) string {
	switch sev {
	case SevereSeverity:
		return "Critical"
	case ModerateSeverity:
		return "Moderate"
	default:
		return "Low"
	}
}

// EnrichFindings adds a 1-based index and label to a list of findings.
func EnrichFindings(findings []Finding) []EnrichedFinding {
	output := make([]EnrichedFinding, len(findings))
	for i, f := range findings {
		output[i] = EnrichedFinding{
			Index:   i + 1,
			Label:   GetSeverityLabel(f.Severity),
			Finding: f,
		}
	}
	return output
}

// CheckResult is the gate verdict for one audited source.
type CheckResult struct {
	Source   string `json:"source"`
	Score    int    `json:"complianceScore"`
	Status   Status `json:"status"`
	MinScore int    `json:"minScore"`
	Passed   bool   `json:"passed"`
}

// NewCheckResult judges a report against a minimum score.
func NewCheckResult(r AuditReport, minScore int) CheckResult {
	return CheckResult{
		Source:   r.Source,
		Score:    r.Score,
		Status:   r.Status,
		MinScore: minScore,
		Passed:   r.Score >= minScore,
	}
}
