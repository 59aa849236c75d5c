// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// ParseList splits a comma-separated query value into trimmed, lowercased,
// de-duplicated entries. Order is preserved and empty entries are dropped.
//
// Example:
//
//	ParseList(" Open,dismissed, open ,")
//	// Returns: []string{"open", "dismissed"}
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(raw, ","))
}

// DedupeAndTrimLower removes duplicates and empty strings from a slice after
// trimming and lowercasing each element. Order is preserved.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
