package scape

import "strings"

// Normalize canonicalizes a user-supplied scape name: case and separators
// are folded, a "scape-" prefix is dropped, and names written without
// dashes resolve to the registered spelling.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}

	for _, candidate := range aliasCandidates(normalized) {
		if _, ok := registry[candidate]; ok {
			return candidate
		}
		if canonical, ok := compactNames[strings.ReplaceAll(candidate, "-", "")]; ok {
			return canonical
		}
	}
	return normalized
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}
	trimmed := strings.TrimPrefix(normalized, "scape-")
	if trimmed == normalized {
		trimmed = strings.TrimPrefix(normalized, "scape")
	}
	trimmed = strings.Trim(trimmed, "-")
	if trimmed != "" && trimmed != normalized {
		candidates = append(candidates, trimmed)
	}
	return candidates
}

// compactNames maps each registered name with its dashes removed back to
// the registered name. Built by init after registration.
var compactNames = map[string]string{}

func indexCompactNames() {
	for name := range registry {
		compactNames[strings.ReplaceAll(name, "-", "")] = name
	}
}
