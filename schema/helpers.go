package schema

import (
	"strconv"
	"strings"
	"unicode"
)

// cleanParts trims punctuation from the ends of each name part and drops empty parts.
func cleanParts(parts []string) []string {
	var cleaned []string
	for _, p := range parts {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
		})
		if cp != "" {
			cleaned = append(cleaned, cp)
		}
	}
	return cleaned
}

// AbbreviateName formats "Dana Whitfield" to "Dana W" so reports do not print full subject names.
// Single-part names are returned unchanged.
func AbbreviateName(name string) string {
	cleaned := cleanParts(strings.Fields(strings.TrimSpace(name)))
	switch len(cleaned) {
	case 0:
		return strings.TrimSpace(name)
	case 1:
		return cleaned[0]
	}
	last := []rune(cleaned[len(cleaned)-1])
	return cleaned[0] + " " + string(last[0])
}

// SeverityPercent formats a violation weight in [0,1] as a percentage.
func SeverityPercent(p float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(p*100, 'f', 1, 64), "0"), ".") + "%"
}
