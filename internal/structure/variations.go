package structure

import (
	"regexp"
	"strings"
)

var (
	// leadingClassPattern captures the first class token in a selector.
	leadingClassPattern = regexp.MustCompile(`\.([A-Za-z0-9_-]+)`)
	// pseudoClassPattern matches trailing pseudo-classes for stripping.
	pseudoClassPattern = regexp.MustCompile(`:[a-z-]+(?:\([^)]*\))?`)
	// simpleClassPattern matches a selector that is one bare class.
	simpleClassPattern = regexp.MustCompile(`^\.([A-Za-z0-9_-]+)$`)
)

// GenerateSelectorVariations returns structural variants of a selector for
// extraction recovery: underscore/hyphen swaps, attribute-form rewrites of
// class selectors, pseudo-class stripping, and descendant/child combinator
// swaps. The result is deterministic, deduplicated, and always starts with
// the original selector.
func GenerateSelectorVariations(selector string) []string {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}

	candidates := []string{selector}

	// Underscore <-> hyphen swaps catch sites that rename classes between
	// the two conventions.
	if swapped := strings.ReplaceAll(selector, "_", "-"); swapped != selector {
		candidates = append(candidates, swapped)
	}
	if swapped := strings.ReplaceAll(selector, "-", "_"); swapped != selector {
		candidates = append(candidates, swapped)
	}

	// A bare class selector can be loosened into attribute-substring forms,
	// which survive suffixed or hashed class names.
	if m := simpleClassPattern.FindStringSubmatch(selector); m != nil {
		class := m[1]
		candidates = append(candidates,
			`[class*="`+class+`"]`,
			`[class^="`+class+`"]`,
			`[class$="`+class+`"]`,
		)
	}

	if stripped := pseudoClassPattern.ReplaceAllString(selector, ""); stripped != selector {
		if stripped = strings.TrimSpace(stripped); stripped != "" {
			candidates = append(candidates, stripped)
		}
	}

	if strings.Contains(selector, " > ") {
		candidates = append(candidates, strings.ReplaceAll(selector, " > ", " "))
	} else if strings.Contains(selector, " ") {
		candidates = append(candidates, strings.ReplaceAll(selector, " ", " > "))
	}

	return dedupeStrings(candidates)
}

// BaseClass returns the first class token in a selector, or "".
// Recovery uses it for broad [class*=...] searches.
func BaseClass(selector string) string {
	if m := leadingClassPattern.FindStringSubmatch(selector); m != nil {
		return m[1]
	}
	return ""
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
