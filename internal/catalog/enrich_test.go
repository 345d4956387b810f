package catalog

import (
	"testing"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	table := Table{Entries: Fallback()}

	entry, ok := table.Lookup("  missed TRAINING ")
	assert.True(t, ok)
	assert.Equal(t, "Missed Training", entry.Type)

	_, ok = table.Lookup("Unknown")
	assert.False(t, ok)
}

func TestEnrich(t *testing.T) {
	table := Table{Entries: []schema.ViolationType{
		{Type: "Boiler Overpressure", Code: "BO-1", Percent: 0.7, Category: "Equipment Safety", Description: "pressure above rating", Notes: "n"},
	}}
	input := []schema.Violation{
		{Type: "boiler overpressure"},
		{Type: "Boiler Overpressure", Code: "X", Percent: 0.2, Category: "Compliance"},
		{Type: "Unlisted", Percent: 0.1},
	}

	got := table.Enrich(input)
	assert.Equal(t, []schema.Violation{
		{Type: "boiler overpressure", Code: "BO-1", Percent: 0.7, Category: "Equipment Safety", Description: "pressure above rating", Notes: "n"},
		{Type: "Boiler Overpressure", Code: "X", Percent: 0.2, Category: "Compliance", Description: "pressure above rating", Notes: "n"},
		{Type: "Unlisted", Percent: 0.1},
	}, got)

	// input untouched
	assert.Empty(t, input[0].Code)
}
