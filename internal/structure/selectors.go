// Package structure discovers per-domain CSS selector recipes for article
// fields. An AI model proposes selectors from sample HTML; the proposal is
// sanitized, validated against looks-like-text heuristics, retried once on
// validation failure, and cached per normalized domain. Detection never
// fails: a generic fallback config is always available.
package structure

import (
	"regexp"
	"strings"
)

// Fallback selector values used when detection fails.
const (
	// FallbackTitleSelector is the generic title selector.
	FallbackTitleSelector = "h1"
	// FallbackContentSelector is the generic content selector.
	FallbackContentSelector = "article"
	// FallbackAuthorSelector is the generic author selector.
	FallbackAuthorSelector = ".author"
	// FallbackDateSelector is the generic date selector.
	FallbackDateSelector = "time"
	// FallbackConfidence marks a config produced without AI assistance.
	FallbackConfidence = 0.2
	// minConfidence and maxConfidence clamp AI-reported certainty.
	minConfidence = 0.1
	maxConfidence = 1.0
)

// SelectorConfig is a per-domain selector recipe. Title and content
// selectors are always present; author and date are optional.
type SelectorConfig struct {
	TitleSelector   string  `json:"titleSelector"`
	ContentSelector string  `json:"contentSelector"`
	AuthorSelector  string  `json:"authorSelector,omitempty"`
	DateSelector    string  `json:"dateSelector,omitempty"`
	Confidence      float64 `json:"confidence"`
}

// FallbackConfig returns the generic selector recipe used when AI detection
// is unavailable or twice-invalid. It is never cached.
func FallbackConfig() SelectorConfig {
	return SelectorConfig{
		TitleSelector:   FallbackTitleSelector,
		ContentSelector: FallbackContentSelector,
		AuthorSelector:  FallbackAuthorSelector,
		DateSelector:    FallbackDateSelector,
		Confidence:      FallbackConfidence,
	}
}

var (
	// jqueryPseudoPattern matches jQuery-only pseudo-classes that no real
	// CSS engine accepts.
	jqueryPseudoPattern = regexp.MustCompile(`:(?:contains|eq)\([^)]*\)`)
	// firstLastPseudoPattern matches :first/:last and any hyphenated CSS
	// form (:first-child, :first-of-type, :first-line). Only the bare
	// jQuery shortcuts get rewritten; RE2 has no lookahead, so the
	// replacement callback checks for a hyphen instead.
	firstLastPseudoPattern = regexp.MustCompile(`:(?:first|last)(?:-[a-zA-Z]+)*\b`)
	// emptyNotPattern matches :not() with nothing inside.
	emptyNotPattern = regexp.MustCompile(`:not\(\s*\)`)
	// selectorWhitespacePattern collapses whitespace inside selectors.
	selectorWhitespacePattern = regexp.MustCompile(`\s+`)
)

// textIndicatorPatterns match selector strings that are actually extracted
// visible text, which the AI sometimes returns despite instructions.
var textIndicatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[Bb]y\s+[A-Z]`),
	regexp.MustCompile(`(?i)^published:?\s`),
	regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}`),
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	// Multiple capitalized words separated by spaces with no CSS syntax
	// at all reads as a name or headline, not a selector.
	regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,}$`),
}

// SanitizeSelector normalizes an AI-proposed selector: jQuery-only
// pseudo-classes are stripped, bare :first/:last become
// :first-child/:last-child while hyphenated CSS forms like :first-of-type
// pass through, empty :not() clauses are dropped, and whitespace is
// collapsed. Idempotent: sanitizing twice equals sanitizing once.
func SanitizeSelector(selector string) string {
	s := strings.TrimSpace(selector)
	if s == "" {
		return ""
	}

	s = jqueryPseudoPattern.ReplaceAllString(s, "")
	s = firstLastPseudoPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.Contains(match, "-") {
			return match
		}
		return match + "-child"
	})
	s = emptyNotPattern.ReplaceAllString(s, "")
	s = selectorWhitespacePattern.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// LooksLikeSelector reports whether s is plausibly a CSS selector rather
// than extracted text content.
func LooksLikeSelector(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	for _, pattern := range textIndicatorPatterns {
		if pattern.MatchString(trimmed) {
			return false
		}
	}
	return true
}

// Valid reports whether the config's selectors all look like selectors.
// Required selectors must be present; optional ones are checked only when
// set.
func (c SelectorConfig) Valid() bool {
	if !LooksLikeSelector(c.TitleSelector) || !LooksLikeSelector(c.ContentSelector) {
		return false
	}
	if c.AuthorSelector != "" && !LooksLikeSelector(c.AuthorSelector) {
		return false
	}
	if c.DateSelector != "" && !LooksLikeSelector(c.DateSelector) {
		return false
	}
	return true
}

// sanitized returns a copy of the config with every selector sanitized,
// missing required selectors defaulted, and confidence clamped.
func (c SelectorConfig) sanitized() SelectorConfig {
	c.TitleSelector = SanitizeSelector(c.TitleSelector)
	c.ContentSelector = SanitizeSelector(c.ContentSelector)
	c.AuthorSelector = SanitizeSelector(c.AuthorSelector)
	c.DateSelector = SanitizeSelector(c.DateSelector)

	if c.TitleSelector == "" {
		c.TitleSelector = FallbackTitleSelector
	}
	if c.ContentSelector == "" {
		c.ContentSelector = FallbackContentSelector
	}

	if c.Confidence < minConfidence {
		c.Confidence = minConfidence
	}
	if c.Confidence > maxConfidence {
		c.Confidence = maxConfidence
	}
	return c
}
