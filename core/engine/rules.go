// Package engine holds the deterministic compliance logic: rule lookup, log validation,
// scoring, status classification and violation risk assessment.
// Nothing in this package performs I/O or reads process-wide state.
package engine

import (
	"slices"
	"strings"

	"github.com/huangsam/auditor/schema"
)

// DefaultRulesVersion is the version of the built-in rule table.
const DefaultRulesVersion = 1

// RuleTable maps a lower-cased system type to its rules. It is immutable after construction.
type RuleTable struct {
	version int
	rules   map[string][]schema.Rule
}

// NewRuleTable builds a table from the given rules. Keys are lower-cased and rules are copied,
// so later changes to the input do not leak into the table.
func NewRuleTable(version int, rules map[string][]schema.Rule) RuleTable {
	out := make(map[string][]schema.Rule, len(rules))
	for systemType, list := range rules {
		key := strings.ToLower(strings.TrimSpace(systemType))
		out[key] = append(out[key], copyRules(list)...)
	}
	return RuleTable{version: version, rules: out}
}

// DefaultRuleTable returns the built-in rules for boilers, chillers and compressors.
func DefaultRuleTable() RuleTable {
	return NewRuleTable(DefaultRulesVersion, map[string][]schema.Rule{
		"boiler": {
			{Field: "steamPressure", Max: ptr(150), Required: true},
			{Field: "stackTemp", Max: ptr(550), Required: true},
			{Field: "waterLevel", ExpectedValue: "Normal", Required: true},
		},
		"chiller": {
			{Field: "suctionPressure", Min: ptr(40), Max: ptr(220), Required: true},
			{Field: "condenserTemp", Min: ptr(70), Max: ptr(105), Required: true},
			{Field: "oilTemp", Max: ptr(190), Required: true},
		},
		"compressor": {
			{Field: "oilLevel", ExpectedValue: "Normal", Required: true},
		},
	})
}

// Version returns the version the table was built with.
func (t RuleTable) Version() int {
	return t.version
}

// Lookup returns a copy of the rules for a system type, matched case-insensitively.
func (t RuleTable) Lookup(systemType string) ([]schema.Rule, bool) {
	list, ok := t.rules[strings.ToLower(strings.TrimSpace(systemType))]
	if !ok {
		return nil, false
	}
	return copyRules(list), true
}

// SystemTypes returns the known system types in sorted order.
func (t RuleTable) SystemTypes() []string {
	keys := make([]string, 0, len(t.rules))
	for k := range t.rules {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Rules returns a copy of every rule set keyed by system type.
func (t RuleTable) Rules() map[string][]schema.Rule {
	out := make(map[string][]schema.Rule, len(t.rules))
	for k, v := range t.rules {
		out[k] = copyRules(v)
	}
	return out
}

func copyRules(list []schema.Rule) []schema.Rule {
	out := make([]schema.Rule, len(list))
	for i, r := range list {
		out[i] = r
		if r.Min != nil {
			out[i].Min = ptr(*r.Min)
		}
		if r.Max != nil {
			out[i].Max = ptr(*r.Max)
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
