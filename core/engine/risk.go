package engine

import (
	"math"
	"strings"

	"github.com/huangsam/auditor/schema"
)

// Bounds for the averaged policy and for work order priority.
const (
	highRiskAverage = 0.65
	lowRiskAverage  = 0.35
)

// Bounds for the cumulative policy, applied to the sum of percents.
const (
	cumulativeHigh    = 1.05
	cumulativeMedium  = 0.69
	cumulativeWarning = 0.35
)

// equipmentSuggestions is attached to every equipment-related violation.
var equipmentSuggestions = []string{
	"Schedule a full inspection of the affected equipment",
	"Review operating and maintenance logs for the last 90 days",
	"Evaluate a retrofit or replacement of the affected component",
	"Add the issue to the Analyze-Tune-Improve cycle for the next protocol review",
}

// departmentRoutes is checked in order; the first category substring that matches wins.
var departmentRoutes = []struct {
	match string
	dept  schema.Department
}{
	{"Equipment", schema.MaintenanceDept},
	{"Safety", schema.EHSDept},
	{"Compliance", schema.ComplianceDept},
}

// RiskEngine reduces a subject's violations to a risk profile. It holds no mutable state.
type RiskEngine struct {
	policy schema.RiskPolicy
}

// NewRiskEngine returns a RiskEngine for the given policy. An empty policy means average.
func NewRiskEngine(policy schema.RiskPolicy) *RiskEngine {
	if policy == "" {
		policy = schema.AveragePolicy
	}
	return &RiskEngine{policy: policy}
}

// Policy returns the policy used to categorize risk.
func (e *RiskEngine) Policy() schema.RiskPolicy {
	return e.policy
}

// AssessRisk builds the risk profile for a list of violations and a salary.
func (e *RiskEngine) AssessRisk(violations []schema.Violation, salary float64) schema.RiskProfile {
	total := 0.0
	for _, v := range violations {
		total += v.Percent
	}
	avg := 0.0
	if len(violations) > 0 {
		avg = total / float64(len(violations))
	}

	profile := schema.RiskProfile{
		Subject:               schema.Subject{Salary: salary},
		Policy:                e.policy,
		Violations:            append([]schema.Violation{}, violations...),
		TotalViolations:       len(violations),
		TotalSeverity:         total,
		AverageSeverity:       avg,
		RiskCategory:          e.categorize(avg, total),
		RiskCostImpact:        avg * salary,
		EthicalIntegrityIndex: math.Min(100, math.Max(0, (1-avg)*100)),
		WorkOrders:            make([]schema.WorkOrder, 0, len(violations)),
		EquipmentIntelligence: []schema.EquipmentInsight{},
	}

	for _, v := range violations {
		profile.WorkOrders = append(profile.WorkOrders, workOrderFor(v))
		if strings.Contains(v.Category, "Equipment") {
			profile.EquipmentIntelligence = append(profile.EquipmentIntelligence, schema.EquipmentInsight{
				Violation:   v.Type,
				Suggestions: append([]string{}, equipmentSuggestions...),
			})
		}
	}
	return profile
}

func (e *RiskEngine) categorize(avg, total float64) schema.RiskCategory {
	if e.policy == schema.CumulativePolicy {
		switch {
		case total >= cumulativeHigh:
			return schema.HighRisk
		case total >= cumulativeMedium:
			return schema.MediumRisk
		case total >= cumulativeWarning:
			return schema.WarningRisk
		default:
			return schema.GoodStanding
		}
	}
	switch {
	case avg > highRiskAverage:
		return schema.HighRisk
	case avg >= lowRiskAverage:
		return schema.ModerateRisk
	default:
		return schema.GoodStanding
	}
}

// PriorityFor returns the work order priority for a violation weight.
func PriorityFor(percent float64) schema.Priority {
	switch {
	case percent > highRiskAverage:
		return schema.HighPriority
	case percent < lowRiskAverage:
		return schema.LowPriority
	default:
		return schema.MediumPriority
	}
}

// DepartmentFor routes a violation category to a department. Matching is case-sensitive.
func DepartmentFor(category string) schema.Department {
	for _, r := range departmentRoutes {
		if strings.Contains(category, r.match) {
			return r.dept
		}
	}
	return schema.GeneralDept
}

func workOrderFor(v schema.Violation) schema.WorkOrder {
	priority := PriorityFor(v.Percent)
	var action string
	switch priority {
	case schema.HighPriority:
		action = "Open a corrective action for " + v.Type + " and escalate to the supervisor within 24 hours"
	case schema.MediumPriority:
		action = "Schedule corrective training for " + v.Type + " within 7 days"
	default:
		action = "Log " + v.Type + " and review at the next periodic audit"
	}
	return schema.WorkOrder{
		Violation:  v.Type,
		Code:       v.Code,
		Department: DepartmentFor(v.Category),
		Priority:   priority,
		Action:     action,
	}
}
