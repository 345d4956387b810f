package ingest

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseViolations(t *testing.T) {
	want := []schema.Violation{
		{Type: "Late Inspection Log", Code: "LIL-01", Percent: 0.03, Category: "Compliance"},
		{Type: "Boiler Overpressure", Percent: 0.7, Category: "Equipment Safety"},
	}

	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "json array",
			format: JSONFormat,
			data: `[{"type":"Late Inspection Log","code":"LIL-01","percent":0.03,"category":"Compliance"},
				{"type":"Boiler Overpressure","percent":0.7,"category":"Equipment Safety"}]`,
		},
		{
			name:   "json object",
			format: JSONFormat,
			data: `{"violations":[{"type":"Late Inspection Log","code":"LIL-01","percent":0.03,"category":"Compliance"},
				{"type":"Boiler Overpressure","percent":0.7,"category":"Equipment Safety"}]}`,
		},
		{
			name:   "yaml list",
			format: YAMLFormat,
			data: "- type: Late Inspection Log\n  code: LIL-01\n  percent: 0.03\n  category: Compliance\n" +
				"- type: Boiler Overpressure\n  percent: 0.7\n  category: Equipment Safety\n",
		},
		{
			name:   "yaml object",
			format: YAMLFormat,
			data: "violations:\n" +
				"  - {type: Late Inspection Log, code: LIL-01, percent: 0.03, category: Compliance}\n" +
				"  - {type: Boiler Overpressure, percent: 0.7, category: Equipment Safety}\n",
		},
		{
			name:   "csv",
			format: CSVFormat,
			data: "Type,Code,Percent,Category,Extra\n" +
				"Late Inspection Log,LIL-01,0.03,Compliance,x\n" +
				"Boiler Overpressure,,0.7,Equipment Safety,\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseViolations([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseViolationsRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"percent above one", JSONFormat, `[{"type":"A","percent":1.5}]`},
		{"negative percent", JSONFormat, `[{"type":"A","percent":-0.1}]`},
		{"missing type", YAMLFormat, "- percent: 0.2\n"},
		{"csv without type column", CSVFormat, "code,percent\nA,0.1\n"},
		{"csv bad percent", CSVFormat, "type,percent\nA,high\n"},
		{"csv NaN percent", CSVFormat, "type,percent\nA,NaN\n"},
		{"csv infinite percent", CSVFormat, "type,percent\nA,+Inf\n"},
		{"yaml NaN percent", YAMLFormat, "- type: A\n  percent: .nan\n"},
		{"yaml infinite percent", YAMLFormat, "- type: A\n  percent: .inf\n"},
		{"broken json", JSONFormat, `[{"type":`},
		{"empty json", JSONFormat, ""},
		{"unsupported", Format("toml"), "a = 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseViolations([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestLoadViolations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "violations.yaml", "- type: Missed Training\n  percent: 0.04\n")

	got, err := LoadViolations(path)
	require.NoError(t, err)
	assert.Equal(t, []schema.Violation{{Type: "Missed Training", Percent: 0.04}}, got)

	_, err = LoadViolations(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadViolations(writeFile(t, dir, "v.pdf", "%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
