package snapshot

import (
	"regexp"
	"strings"
)

// headerBreaks matches runs of embedded newlines/carriage returns. Workbook
// headers frequently carry manual line wraps.
var headerBreaks = regexp.MustCompile(`[\n\r]+`)

// NormalizeHeader collapses embedded line breaks to single spaces and trims
// surrounding whitespace.
func NormalizeHeader(h string) string {
	return strings.TrimSpace(headerBreaks.ReplaceAllString(h, " "))
}

// ResolveColumn returns the actual header matching any of the given aliases.
// Headers are compared case-insensitively after normalization; aliases are
// tried in order and the first one with a match wins. Fails with a
// *ColumnNotFoundError naming the attempted aliases when nothing matches.
func ResolveColumn(headers []string, aliases []string) (string, error) {
	normalized := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(NormalizeHeader(h))
		if _, ok := normalized[key]; !ok {
			normalized[key] = h
		}
	}

	for _, alias := range aliases {
		if actual, ok := normalized[strings.ToLower(strings.TrimSpace(alias))]; ok {
			return actual, nil
		}
	}
	return "", &ColumnNotFoundError{Aliases: aliases, Available: headers}
}
