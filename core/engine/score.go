package engine

import (
	"math"

	"github.com/huangsam/auditor/schema"
)

// Status tier lower bounds.
const (
	CompliantThreshold = 90
	ReviewThreshold    = 70
)

// RiskPoints sums the severity weights of the findings.
func RiskPoints(findings []schema.Finding) int {
	points := 0
	for _, f := range findings {
		points += schema.SeverityWeight[f.Severity]
	}
	return points
}

// Score turns findings into a 0-100 compliance score by severity-weighted deduction.
// A run with no checks scores 100.
func Score(totalChecks int, findings []schema.Finding) int {
	if totalChecks <= 0 {
		return 100
	}
	maxRisk := float64(totalChecks * schema.MaxSeverityWeight)
	pct := math.Max(0, (1-float64(RiskPoints(findings))/maxRisk)*100)
	return int(math.Round(pct))
}

// Classify maps a compliance score to its status tier.
func Classify(score int) schema.Status {
	switch {
	case score >= CompliantThreshold:
		return schema.CompliantStatus
	case score >= ReviewThreshold:
		return schema.ReviewStatus
	default:
		return schema.CriticalStatus
	}
}
