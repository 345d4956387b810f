package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool names the model is forced to call.
const (
	FindingsToolName = "analyze_compliance_issues"
	IssueToolName    = "compliance_analysis"
)

// toolSpec is a function tool offered to the model together with the JSON Schema of its arguments.
type toolSpec struct {
	Name        string
	Description string
	Parameters  string

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

var findingsTool = &toolSpec{
	Name:        FindingsToolName,
	Description: "Analyze compliance issues and return findings with root causes and recommendations.",
	Parameters: `{
  "type": "object",
  "properties": {
    "issues": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "problemDetected": {"type": "string", "description": "Short phrase describing the problem"},
          "severity": {"type": "string", "enum": ["Low", "Moderate", "Severe", "Critical"]},
          "possibleCauses": {"type": "array", "items": {"type": "string"}},
          "recommendedActions": {"type": "array", "items": {"type": "string"}},
          "monitoringSuggestions": {"type": "array", "items": {"type": "string"}},
          "estimatedRiskCost": {"type": "number", "description": "Estimated cost in dollars"},
          "notes": {"type": "string"}
        },
        "required": ["problemDetected", "severity", "possibleCauses", "recommendedActions", "monitoringSuggestions", "estimatedRiskCost"],
        "additionalProperties": false
      }
    },
    "summary": {
      "type": "object",
      "properties": {
        "complianceScore": {"type": "number", "minimum": 0, "maximum": 100},
        "numberOfIssues": {"type": "integer", "minimum": 0},
        "criticalFlags": {"type": "integer", "minimum": 0},
        "overallPriority": {"type": "string", "enum": ["Low", "Medium", "High"]}
      },
      "required": ["complianceScore", "numberOfIssues", "criticalFlags", "overallPriority"],
      "additionalProperties": false
    }
  },
  "required": ["issues", "summary"],
  "additionalProperties": false
}`,
}

var issueTool = &toolSpec{
	Name:        IssueToolName,
	Description: "Return a structured compliance analysis of a reported facility issue.",
	Parameters: `{
  "type": "object",
  "properties": {
    "findings": {
      "type": "object",
      "properties": {
        "issueSummary": {"type": "string"},
        "rootCause": {"type": "string"},
        "severityScore": {"type": "number", "minimum": 0, "maximum": 100},
        "systemImpact": {"type": "string"},
        "operationalRiskLevel": {"type": "string", "enum": ["Emergency", "High", "Medium", "Low"]},
        "codeReferences": {"type": "string"}
      },
      "required": ["issueSummary", "rootCause", "severityScore", "systemImpact", "operationalRiskLevel"]
    },
    "workOrder": {
      "type": "object",
      "properties": {
        "department": {"type": "string"},
        "description": {"type": "string"},
        "priority": {"type": "string", "enum": ["Emergency", "High", "Medium", "Low"]},
        "estimatedCost": {"type": "string"},
        "optimization": {"type": "string"}
      },
      "required": ["department", "description", "priority", "estimatedCost"]
    },
    "supervisorSummary": {"type": "string"}
  },
  "required": ["findings", "workOrder", "supervisorSummary"]
}`,
}

func (t *toolSpec) schema() (*jsonschema.Schema, error) {
	t.once.Do(func() {
		url := "https://auditor.local/tools/" + t.Name + ".json"
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(url, strings.NewReader(t.Parameters)); err != nil {
			t.err = fmt.Errorf("failed to load %s schema: %w", t.Name, err)
			return
		}
		t.compiled, t.err = c.Compile(url)
	})
	return t.compiled, t.err
}

// parameterMap returns the argument schema as a generic map.
func (t *toolSpec) parameterMap() map[string]any {
	var m map[string]any
	_ = json.Unmarshal([]byte(t.Parameters), &m)
	return m
}

// decodeArgs validates decoded tool arguments against the tool schema and then decodes
// them into out. Arguments pass through a JSON round trip so integral floats fit int fields.
func (t *toolSpec) decodeArgs(args any, out any) error {
	s, err := t.schema()
	if err != nil {
		return err
	}
	if err := s.Validate(args); err != nil {
		return fmt.Errorf("%w: %s arguments: %v", ErrInvalidToolCall, t.Name, err)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %s arguments: %v", ErrInvalidToolCall, t.Name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s arguments: %v", ErrInvalidToolCall, t.Name, err)
	}
	return nil
}

// decodeRawArgs is decodeArgs for arguments delivered as a JSON string.
func (t *toolSpec) decodeRawArgs(raw string, out any) error {
	var args any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return fmt.Errorf("%w: %s arguments are not JSON: %v", ErrInvalidToolCall, t.Name, err)
	}
	return t.decodeArgs(args, out)
}
