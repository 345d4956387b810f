package engine

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/huangsam/auditor/schema"
)

// Thresholds past which a bound breach becomes severe.
const (
	severeAboveFactor = 1.2
	severeBelowFactor = 0.8
)

// Validator applies a rule table to observation records. It is safe for concurrent use.
type Validator struct {
	table RuleTable
}

// NewValidator returns a Validator bound to the given rule table.
func NewValidator(table RuleTable) *Validator {
	return &Validator{table: table}
}

// Table returns the rule table the validator was built with.
func (v *Validator) Table() RuleTable {
	return v.table
}

// Validate returns the findings for a set of observations of one system type.
// Findings follow observation order, then rule order. Unknown system types yield no findings.
func (v *Validator) Validate(observations []schema.Observation, systemType string) []schema.Finding {
	rules, _ := v.table.Lookup(systemType)
	findings := []schema.Finding{}
	for _, obs := range observations {
		for _, rule := range rules {
			findings = append(findings, checkRule(rule, obs)...)
		}
	}
	return findings
}

// ValidateReport is Validate plus the counts needed for scoring and a flag telling
// whether the system type was known.
func (v *Validator) ValidateReport(observations []schema.Observation, systemType string) schema.ValidationResult {
	rules, ok := v.table.Lookup(systemType)
	return schema.ValidationResult{
		SystemType:  systemType,
		Supported:   ok,
		TotalChecks: len(observations) * len(rules),
		Findings:    v.Validate(observations, systemType),
	}
}

func checkRule(rule schema.Rule, obs schema.Observation) []schema.Finding {
	value, present := obs[rule.Field]
	if isEmpty(value, present) && rule.Required {
		return []schema.Finding{{
			Field:    rule.Field,
			Value:    schema.MissingValue,
			Flag:     schema.NonCompliantFlag,
			Severity: schema.ModerateSeverity,
		}}
	}

	if num, ok := toFloat(value); ok {
		var out []schema.Finding
		text := formatNumber(num)
		if rule.Max != nil && num > *rule.Max {
			sev := schema.ModerateSeverity
			if num > *rule.Max*severeAboveFactor {
				sev = schema.SevereSeverity
			}
			out = append(out, schema.Finding{Field: rule.Field, Value: text, Flag: schema.AboveLimitFlag, Severity: sev})
		}
		if rule.Min != nil && num < *rule.Min {
			sev := schema.ModerateSeverity
			if num < *rule.Min*severeBelowFactor {
				sev = schema.SevereSeverity
			}
			out = append(out, schema.Finding{Field: rule.Field, Value: text, Flag: schema.BelowLimitFlag, Severity: sev})
		}
		return out
	}

	if rule.ExpectedValue != "" {
		text := fmt.Sprint(value)
		if !present || value == nil {
			text = schema.MissingValue
		}
		if !present || value == nil || text != rule.ExpectedValue {
			return []schema.Finding{{
				Field:    rule.Field,
				Value:    text,
				Flag:     schema.ExpectedFlag(rule.ExpectedValue),
				Severity: schema.MinorSeverity,
			}}
		}
	}
	return nil
}

func isEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// toFloat reports whether value is a number and returns it as float64.
// Strings are never treated as numbers.
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
