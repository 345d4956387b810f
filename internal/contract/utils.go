package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/auditor/schema"
)

// Label constants.
const (
	CriticalValue = "Critical" // Critical value
	HighValue     = "High"     // High value
	ModerateValue = "Moderate" // Moderate value
	LowValue      = "Low"      // Low value
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // criticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // highColor represents strong, distinct warning.
	ModerateColor = color.New(color.FgYellow)              // moderateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // lowColor represents informational / low-priority signal.
)

// GetStatusLabel returns a plain text label for a compliance status.
func GetStatusLabel(status schema.Status) string {
	switch status {
	case schema.CriticalStatus:
		return CriticalValue
	case schema.ReviewStatus:
		return ModerateValue
	default:
		return LowValue
	}
}

// GetRiskLabel returns a plain text label for a risk category.
func GetRiskLabel(category schema.RiskCategory) string {
	switch category {
	case schema.HighRisk:
		return CriticalValue
	case schema.MediumRisk, schema.ModerateRisk:
		return HighValue
	case schema.WarningRisk:
		return ModerateValue
	default:
		return LowValue
	}
}

// Colorize applies the color for a plain label. Unknown labels are returned unchanged.
func Colorize(label, text string) string {
	switch label {
	case CriticalValue:
		return CriticalColor.Sprint(text)
	case HighValue:
		return HighColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	case LowValue:
		return LowColor.Sprint(text)
	default:
		return text
	}
}

// GetColorStatus returns a colored status string for console output (table).
func GetColorStatus(status schema.Status) string {
	return Colorize(GetStatusLabel(status), string(status))
}

// GetColorSeverity returns a colored severity string for console output (table).
func GetColorSeverity(sev schema.Severity) string {
	return Colorize(schema.GetSeverityLabel(sev), string(sev))
}

// GetColorRisk returns a colored risk category for console output (table).
func GetColorRisk(category schema.RiskCategory) string {
	return Colorize(GetRiskLabel(category), string(category))
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".auditor_cache.db"
	}
	return filepath.Join(homeDir, ".auditor_cache.db")
}

// GetAuditDBFilePath returns the path to the SQLite DB file for audit history.
func GetAuditDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".auditor_history.db"
	}
	return filepath.Join(homeDir, ".auditor_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so the "..." prefix leaves room for content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
