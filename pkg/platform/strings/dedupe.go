// Package strings provides helpers for reference lists such as evidence links.
package strings

import (
	"strings"
)

// NormalizeRefs trims each reference, drops empty values and removes
// duplicates while preserving first-seen order. A nil input yields an empty,
// non-nil slice so callers can serialize it as [].
//
//	NormalizeRefs([]string{" s3://a ", "s3://b", "s3://a", ""})
//	// []string{"s3://a", "s3://b"}
func NormalizeRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		trimmed := strings.TrimSpace(r)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// MergeRefs appends additions to existing and reports how many were new.
// Existing entries keep their position.
func MergeRefs(existing, additions []string) ([]string, int) {
	merged := NormalizeRefs(existing)
	seen := make(map[string]struct{}, len(merged))
	for _, r := range merged {
		seen[r] = struct{}{}
	}
	added := 0
	for _, r := range NormalizeRefs(additions) {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		merged = append(merged, r)
		added++
	}
	return merged, added
}
