//go:build property

package engine

import (
	"reflect"
	"testing"

	"github.com/huangsam/auditor/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestScoreBounds verifies the score always stays within 0..100.
func TestScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("score is within 0..100", prop.ForAll(
		func(totalChecks int, minor, moderate, severe uint8) bool {
			findings := buildFindings(int(minor), int(moderate), int(severe))
			s := Score(totalChecks, findings)
			return s >= 0 && s <= 100
		},
		gen.IntRange(-5, 500),
		gen.UInt8(),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// TestScoreMonotonic verifies adding a finding never raises the score.
func TestScoreMonotonic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("an extra finding never raises the score", prop.ForAll(
		func(totalChecks int, minor, moderate, severe uint8, extra int) bool {
			findings := buildFindings(int(minor), int(moderate), int(severe))
			sevs := []schema.Severity{schema.MinorSeverity, schema.ModerateSeverity, schema.SevereSeverity}
			more := append(append([]schema.Finding{}, findings...), schema.Finding{Severity: sevs[extra]})
			return Score(totalChecks, more) <= Score(totalChecks, findings)
		},
		gen.IntRange(1, 500),
		gen.UInt8Range(0, 20),
		gen.UInt8Range(0, 20),
		gen.UInt8Range(0, 20),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

// TestClassifyTiers verifies the classifier agrees with the tier bounds.
func TestClassifyTiers(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("status follows thresholds", prop.ForAll(
		func(score int) bool {
			status := Classify(score)
			switch {
			case score >= 90:
				return status == schema.CompliantStatus
			case score >= 70:
				return status == schema.ReviewStatus
			default:
				return status == schema.CriticalStatus
			}
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// TestValidateDeterministic verifies validation is repeatable and bounded by checks.
func TestValidateDeterministic(t *testing.T) {
	v := NewValidator(DefaultRuleTable())
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("same input gives same findings", prop.ForAll(
		func(pressures []float64, levels []string) bool {
			logs := make([]schema.Observation, 0, len(pressures))
			for i, p := range pressures {
				obs := schema.Observation{"steamPressure": p, "stackTemp": p * 3}
				if i < len(levels) {
					obs["waterLevel"] = levels[i]
				}
				logs = append(logs, obs)
			}
			first := v.ValidateReport(logs, "boiler")
			second := v.ValidateReport(logs, "boiler")
			// Boiler rules carry one bound each, so a check yields at most one finding.
			return reflect.DeepEqual(first, second) && len(first.Findings) <= first.TotalChecks
		},
		gen.SliceOf(gen.Float64Range(0, 400)),
		gen.SliceOf(gen.OneConstOf("Normal", "Low", "High", ""), reflect.TypeOf("")),
	))

	properties.TestingRun(t)
}

// TestRiskIndexBounds verifies the integrity index stays within 0..100.
func TestRiskIndexBounds(t *testing.T) {
	e := NewRiskEngine(schema.AveragePolicy)
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("integrity index is clamped", prop.ForAll(
		func(percents []float64) bool {
			vs := make([]schema.Violation, len(percents))
			for i, p := range percents {
				vs[i] = schema.Violation{Type: "v", Percent: p}
			}
			p := e.AssessRisk(vs, 50000)
			return p.EthicalIntegrityIndex >= 0 && p.EthicalIntegrityIndex <= 100 && len(p.WorkOrders) == len(vs)
		},
		gen.SliceOf(gen.Float64Range(-1, 2)),
	))

	properties.TestingRun(t)
}

func buildFindings(minor, moderate, severe int) []schema.Finding {
	var out []schema.Finding
	for range minor {
		out = append(out, schema.Finding{Severity: schema.MinorSeverity})
	}
	for range moderate {
		out = append(out, schema.Finding{Severity: schema.ModerateSeverity})
	}
	for range severe {
		out = append(out, schema.Finding{Severity: schema.SevereSeverity})
	}
	return out
}
