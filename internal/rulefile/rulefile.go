// Package rulefile loads rule tables from YAML documents of the form
//
//	version: 2
//	systems:
//	  boiler:
//	    - field: steamPressure
//	      max: 150
//	      required: true
//
// Documents are checked against an embedded JSON Schema before they are converted.
package rulefile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/huangsam/auditor/core/engine"
	"github.com/huangsam/auditor/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.schema.json
var schemaJSON string

const schemaURL = "https://auditor.local/schemas/rules.schema.json"

var (
	compiled    *jsonschema.Schema
	compileErr  error
	compileOnce sync.Once
)

// document is the on-disk shape of a rule file.
type document struct {
	Version int                      `yaml:"version"`
	Systems map[string][]schema.Rule `yaml:"systems"`
}

func ruleSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("failed to load rule schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Load reads and parses a rule file.
func Load(path string) (engine.RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.RuleTable{}, fmt.Errorf("failed to read rule file: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return engine.RuleTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Parse validates a YAML rule document and converts it into a RuleTable.
// A missing version defaults to 1.
func Parse(data []byte) (engine.RuleTable, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return engine.RuleTable{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := validate(raw); err != nil {
		return engine.RuleTable{}, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return engine.RuleTable{}, fmt.Errorf("invalid rule document: %w", err)
	}
	for systemType, rules := range doc.Systems {
		for _, r := range rules {
			if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
				return engine.RuleTable{}, fmt.Errorf("system %s field %s: min %v exceeds max %v", systemType, r.Field, *r.Min, *r.Max)
			}
		}
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	return engine.NewRuleTable(doc.Version, doc.Systems), nil
}

// validate checks the decoded YAML against the rule schema. The value is round-tripped
// through JSON so numbers reach the validator in the form it expects.
func validate(raw any) error {
	s, err := ruleSchema()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("rule document is not JSON compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("rule document is not JSON compatible: %w", err)
	}
	if err := s.Validate(value); err != nil {
		return fmt.Errorf("rule schema validation failed: %w", err)
	}
	return nil
}

// Encode renders a rule table in the rule file format.
func Encode(table engine.RuleTable) ([]byte, error) {
	return yaml.Marshal(document{Version: table.Version(), Systems: table.Rules()})
}
