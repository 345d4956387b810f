package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/schema"
)

// renderers holds one writer per output mode. A nil writer falls back to text.
type renderers struct {
	json func(io.Writer) error
	csv  func(io.Writer) error
	text func(io.Writer) error
}

// pick returns the writer and its label for the given output mode.
func (r renderers) pick(mode schema.OutputMode) (func(io.Writer) error, string) {
	switch {
	case mode == schema.JSONOut && r.json != nil:
		return r.json, "JSON"
	case mode == schema.CSVOut && r.csv != nil:
		return r.csv, "CSV"
	default:
		return r.text, "table"
	}
}

// render writes the output selected by cfg.Output to cfg.OutputFile, or stdout when it is empty.
// JSON and CSV failures name the format so callers can tell them apart.
func render(cfg *contract.Config, r renderers) error {
	writer, label := r.pick(cfg.Output)
	if writer == nil {
		return fmt.Errorf("no %s output for this report", label)
	}
	err := writeWithFile(cfg, writer, label)
	if err != nil && label != "table" {
		return fmt.Errorf("error writing %s output: %w", label, err)
	}
	return err
}

// writeWithFile runs writer against the output target and notes the file on stderr.
func writeWithFile(cfg *contract.Config, writer func(io.Writer) error, label string) error {
	file, err := contract.SelectOutputFile(cfg.OutputFile)
	if err != nil {
		return err
	}
	if file == os.Stdout {
		return writer(file)
	}
	defer func() { _ = file.Close() }()

	if err := writer(file); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s Wrote %s to %s\n", headerMark(cfg, "💾", "->"), label, cfg.OutputFile)
	return nil
}

// writeJSON encodes data with two-space indentation.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes header, then lets writeRows fill the body.
// A flush error is returned when writeRows succeeded.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// floatFormatter renders scores, weights and costs at the configured precision.
// A negative precision uses the default.
func floatFormatter(precision int) func(float64) string {
	if precision < 0 {
		precision = contract.DefaultPrecision
	}
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}
