package engine

import (
	"testing"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleTable(t *testing.T) {
	table := DefaultRuleTable()

	assert.Equal(t, DefaultRulesVersion, table.Version())
	assert.Equal(t, []string{"boiler", "chiller", "compressor"}, table.SystemTypes())

	boiler, ok := table.Lookup("boiler")
	require.True(t, ok)
	require.Len(t, boiler, 3)
	assert.Equal(t, "steamPressure", boiler[0].Field)
	assert.InDelta(t, 150.0, *boiler[0].Max, 0)
	assert.Nil(t, boiler[0].Min)
	assert.Equal(t, "Normal", boiler[2].ExpectedValue)

	chiller, ok := table.Lookup("chiller")
	require.True(t, ok)
	require.Len(t, chiller, 3)
	assert.InDelta(t, 40.0, *chiller[0].Min, 0)
	assert.InDelta(t, 220.0, *chiller[0].Max, 0)

	compressor, ok := table.Lookup("compressor")
	require.True(t, ok)
	require.Len(t, compressor, 1)
	assert.True(t, compressor[0].Required)
}

func TestRuleTableLookup(t *testing.T) {
	table := DefaultRuleTable()

	tests := []struct {
		name      string
		system    string
		wantFound bool
	}{
		{"lower", "boiler", true},
		{"upper", "BOILER", true},
		{"mixed", "Chiller", true},
		{"padded", "  compressor ", true},
		{"unknown", "turbine", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, ok := table.Lookup(tt.system)
			assert.Equal(t, tt.wantFound, ok)
			if !tt.wantFound {
				assert.Nil(t, rules)
			}
		})
	}
}

func TestRuleTableIsImmutable(t *testing.T) {
	max := 10.0
	input := map[string][]schema.Rule{
		"Pump": {{Field: "flow", Max: &max, Required: true}},
	}
	table := NewRuleTable(3, input)

	// Changing the input after construction must not affect the table.
	max = 99
	input["Pump"][0].Field = "changed"

	rules, ok := table.Lookup("pump")
	require.True(t, ok)
	assert.Equal(t, "flow", rules[0].Field)
	assert.InDelta(t, 10.0, *rules[0].Max, 0)

	// Nor must changing a returned copy.
	*rules[0].Max = 1
	rules[0].Field = "other"
	again, _ := table.Lookup("pump")
	assert.Equal(t, "flow", again[0].Field)
	assert.InDelta(t, 10.0, *again[0].Max, 0)

	all := table.Rules()
	all["pump"][0].Field = "x"
	again, _ = table.Lookup("pump")
	assert.Equal(t, "flow", again[0].Field)
}
