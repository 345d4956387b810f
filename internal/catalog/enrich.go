package catalog

import (
	"strings"

	"github.com/huangsam/auditor/schema"
)

// Lookup finds an entry by violation type, ignoring case and surrounding space.
func (t Table) Lookup(violationType string) (schema.ViolationType, bool) {
	want := strings.TrimSpace(violationType)
	for _, e := range t.Entries {
		if strings.EqualFold(strings.TrimSpace(e.Type), want) {
			return e, true
		}
	}
	return schema.ViolationType{}, false
}

// Enrich returns a copy of violations with empty fields filled from the table.
// Fields already set on a violation are kept; a zero percent counts as empty.
func (t Table) Enrich(violations []schema.Violation) []schema.Violation {
	out := make([]schema.Violation, len(violations))
	for i, v := range violations {
		entry, ok := t.Lookup(v.Type)
		if ok {
			if v.Code == "" {
				v.Code = entry.Code
			}
			if v.Percent == 0 {
				v.Percent = entry.Percent
			}
			if v.Category == "" {
				v.Category = entry.Category
			}
			if v.Description == "" {
				v.Description = entry.Description
			}
			if v.Notes == "" {
				v.Notes = entry.Notes
			}
		}
		out[i] = v
	}
	return out
}
