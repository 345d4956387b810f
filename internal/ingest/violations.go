package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/auditor/schema"
	"gopkg.in/yaml.v3"
)

// violationDocument is the object form of a violation file.
type violationDocument struct {
	Violations []schema.Violation `json:"violations" yaml:"violations"`
}

// LoadViolations reads a violation file, or stdin when path is "-" (JSON assumed).
func LoadViolations(path string) ([]schema.Violation, error) {
	format := JSONFormat
	if path != "-" {
		var err error
		if format, err = FormatFor(path); err != nil {
			return nil, err
		}
	}
	data, err := readAllInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	violations, err := ParseViolations(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return violations, nil
}

// ParseViolations decodes a list of violations and checks that every entry has a type
// and a percent within [0,1].
func ParseViolations(data []byte, format Format) ([]schema.Violation, error) {
	var (
		violations []schema.Violation
		err        error
	)
	switch format {
	case JSONFormat:
		violations, err = parseJSONViolations(data)
	case YAMLFormat:
		violations, err = parseYAMLViolations(data)
	case CSVFormat:
		violations, err = parseCSVViolations(data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	for i, v := range violations {
		if err := checkViolation(v); err != nil {
			return nil, fmt.Errorf("violation %d: %w", i+1, err)
		}
	}
	return violations, nil
}

func checkViolation(v schema.Violation) error {
	if strings.TrimSpace(v.Type) == "" {
		return errors.New("type is required")
	}
	if math.IsNaN(v.Percent) || v.Percent < 0 || v.Percent > 1 {
		return fmt.Errorf("percent %v for %q must be between 0 and 1", v.Percent, v.Type)
	}
	return nil
}

func parseJSONViolations(data []byte) ([]schema.Violation, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}
	if trimmed[0] == '[' {
		var violations []schema.Violation
		if err := json.Unmarshal(trimmed, &violations); err != nil {
			return nil, fmt.Errorf("invalid JSON violations: %w", err)
		}
		return violations, nil
	}
	var doc violationDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON violations: %w", err)
	}
	return doc.Violations, nil
}

func parseYAMLViolations(data []byte) ([]schema.Violation, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("invalid YAML violations: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("empty input")
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var violations []schema.Violation
		if err := root.Decode(&violations); err != nil {
			return nil, fmt.Errorf("invalid YAML violations: %w", err)
		}
		return violations, nil
	}
	var doc violationDocument
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid YAML violations: %w", err)
	}
	return doc.Violations, nil
}

// parseCSVViolations matches columns by header name. Unknown columns are ignored.
func parseCSVViolations(data []byte) ([]schema.Violation, error) {
	records, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	columns := map[string]int{}
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["type"]; !ok {
		return nil, errors.New("CSV header must include a type column")
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var violations []schema.Violation
	for n, row := range records[1:] {
		v := schema.Violation{
			Type:        cell(row, "type"),
			Code:        cell(row, "code"),
			Description: cell(row, "description"),
			Category:    cell(row, "category"),
			Notes:       cell(row, "notes"),
		}
		if raw := cell(row, "percent"); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid percent %q", n+2, raw)
			}
			v.Percent = p
		}
		violations = append(violations, v)
	}
	return violations, nil
}
