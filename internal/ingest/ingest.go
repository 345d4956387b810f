// Package ingest reads observation logs and violation lists from JSON, YAML and CSV files.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
	"gopkg.in/yaml.v3"
)

// Format is an input encoding.
type Format string

// All input formats supported.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
	CSVFormat  Format = "csv"
)

// systemTypeColumn is the optional CSV column naming the system type of every row.
const systemTypeColumn = "systemType"

// ErrUnsupportedFormat is returned for files whose extension is not recognized.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ObservationSet is one file's worth of observations.
type ObservationSet struct {
	Source       string               `json:"source" yaml:"-"`
	SystemType   string               `json:"systemType" yaml:"systemType"`
	Observations []schema.Observation `json:"observations" yaml:"observations"`
}

// FormatFor infers the input format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	case ".csv":
		return CSVFormat, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadObservations reads an observation file. The format follows the extension.
func LoadObservations(path string) (ObservationSet, error) {
	format, err := FormatFor(path)
	if err != nil {
		return ObservationSet{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ObservationSet{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	set, err := ParseObservations(data, format)
	if err != nil {
		return ObservationSet{}, fmt.Errorf("%s: %w", path, err)
	}
	set.Source = path
	return set, nil
}

// ParseObservations decodes observations. JSON and YAML accept either a bare list of
// observations or an object with systemType and observations keys.
func ParseObservations(data []byte, format Format) (ObservationSet, error) {
	switch format {
	case JSONFormat:
		return parseJSONObservations(data)
	case YAMLFormat:
		return parseYAMLObservations(data)
	case CSVFormat:
		return parseCSVObservations(data)
	default:
		return ObservationSet{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func parseJSONObservations(data []byte) (ObservationSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ObservationSet{}, errors.New("empty input")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var set ObservationSet
	if trimmed[0] == '[' {
		if err := dec.Decode(&set.Observations); err != nil {
			return ObservationSet{}, fmt.Errorf("invalid JSON observations: %w", err)
		}
		return set, nil
	}
	if err := dec.Decode(&set); err != nil {
		return ObservationSet{}, fmt.Errorf("invalid JSON observations: %w", err)
	}
	return set, nil
}

func parseYAMLObservations(data []byte) (ObservationSet, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return ObservationSet{}, fmt.Errorf("invalid YAML observations: %w", err)
	}
	if len(node.Content) == 0 {
		return ObservationSet{}, errors.New("empty input")
	}

	var set ObservationSet
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		if err := root.Decode(&set.Observations); err != nil {
			return ObservationSet{}, fmt.Errorf("invalid YAML observations: %w", err)
		}
		return set, nil
	}
	if err := root.Decode(&set); err != nil {
		return ObservationSet{}, fmt.Errorf("invalid YAML observations: %w", err)
	}
	return set, nil
}

// parseCSVObservations reads a header row then one observation per row. Numeric cells
// become numbers and empty cells are left out of the observation.
func parseCSVObservations(data []byte) (ObservationSet, error) {
	records, err := readCSV(data)
	if err != nil {
		return ObservationSet{}, err
	}
	header := records[0]

	var set ObservationSet
	for _, row := range records[1:] {
		obs := schema.Observation{}
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			name := strings.TrimSpace(header[i])
			cell = strings.TrimSpace(cell)
			if name == "" || cell == "" {
				continue
			}
			if name == systemTypeColumn {
				if set.SystemType == "" {
					set.SystemType = cell
				}
				continue
			}
			obs[name] = cellValue(cell)
		}
		set.Observations = append(set.Observations, obs)
	}
	return set, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("empty input")
	}
	return records, nil
}

// cellValue reads a CSV cell as a number when it holds a finite one.
// Cells such as "NaN" or "Inf" stay text.
func cellValue(cell string) any {
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return cell
}

// ExpandPaths turns file and directory arguments into a sorted, de-duplicated list of
// supported input files. Directories are walked recursively; excluded paths are skipped.
func ExpandPaths(args []string, excludes []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(path string) {
		if !seen[path] && !contract.ShouldIgnore(path, excludes) {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && contract.ShouldIgnore(path+"/", excludes) {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ferr := FormatFor(path); ferr == nil {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	slices.Sort(out)
	return out, nil
}

// readAllInput reads a path, or stdin when path is "-".
func readAllInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
