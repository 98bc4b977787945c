package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/newscope/internal/structure"
)

const (
	// minContentChars is the minimum combined text length for the primary
	// selector, its variations, and the class-pattern tier.
	minContentChars = 100
	// minFallbackChars is the stricter minimum for the generic fallback list.
	minFallbackChars = 200
	// minQualityChars is the length below which text is low quality outright.
	minQualityChars = 50
	// phraseRepeatLimit flags a short phrase repeated this many times.
	phraseRepeatLimit = 4
)

// titleFallbackSelectors are tried when the configured title selector misses.
var titleFallbackSelectors = []string{
	"h1",
	".headline",
	".article-title",
	".entry-title",
	"header h1",
	"title",
}

// contentFallbackSelectors are generic article containers tried when
// selector-based extraction is exhausted.
var contentFallbackSelectors = []string{
	"article",
	"main",
	"[role='article']",
	".article-content",
	".article-body",
	".post-content",
	".entry-content",
	".story-body",
	".story-content",
	".article-text",
	".content",
	"#article-content",
	"#main-content",
	".main-content",
}

// authorFallbackSelectors are searched when no author selector is
// configured or the configured one misses.
var authorFallbackSelectors = []string{
	".author",
	".byline",
	"[rel='author']",
	".article-author",
	".writer",
	"meta[name='author']",
}

// navigationPrefixes mark text that starts with boilerplate rather than
// article prose.
var navigationPrefixes = []string{
	"menu", "footer", "cookie", "subscribe", "login", "sign in", "sign up",
	"navigation", "search", "share", "advertisement", "skip to",
}

// alphanumericPattern detects whether text has any substance at all.
var alphanumericPattern = regexp.MustCompile(`[a-zA-Z0-9]`)

// extractContent runs the content selector and the tiered recovery chain:
// configured selector, structural variations, broad base-class search,
// generic fallback containers, and finally the whole body text. Each tier
// lowers the returned confidence.
func (e *Extractor) extractContent(doc *goquery.Document, selector string) (string, float64) {
	// Tier 0: the configured selector as-is.
	if text := selectionAll(doc, selector); usableContent(text, minContentChars) {
		return text, ConfidencePrimary
	}

	// Tier 1: structural variations of the selector.
	for _, variant := range structure.GenerateSelectorVariations(selector) {
		if variant == selector {
			continue
		}
		if text := selectionAll(doc, variant); usableContent(text, minContentChars) {
			e.logger.Debug("Content recovered via selector variation",
				"selector", selector,
				"variant", variant)
			return text, ConfidenceVariation
		}
	}

	// Tier 2: broad search on the selector's base class.
	if base := structure.BaseClass(selector); base != "" {
		sel := `[class*="` + base + `"]`
		if text := selectionAll(doc, sel); usableContent(text, minContentChars) {
			e.logger.Debug("Content recovered via class pattern", "pattern", sel)
			return text, ConfidenceClassPattern
		}
	}

	// Tier 3: generic article containers.
	for _, fallback := range contentFallbackSelectors {
		if text := selectionAll(doc, fallback); usableContent(text, minFallbackChars) {
			e.logger.Debug("Content recovered via fallback selector", "selector", fallback)
			return text, ConfidenceFallback
		}
	}

	// Tier 4: whole body text, with obvious non-content regions removed.
	return bodyText(doc), ConfidenceBodyText
}

// usableContent reports whether text meets the length bar and is not a
// navigation fragment.
func usableContent(text string, minChars int) bool {
	return len(text) >= minChars && !isLowQualityContent(text)
}

// isLowQualityContent flags text that is too short, starts with
// navigation/boilerplate words, is one short phrase repeated over and over,
// or contains no alphanumeric characters at all.
func isLowQualityContent(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minQualityChars {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, prefix := range navigationPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	if isRepeatedPhrase(trimmed) {
		return true
	}

	return !alphanumericPattern.MatchString(trimmed)
}

// isRepeatedPhrase reports whether text is a short phrase repeated at
// least phraseRepeatLimit times.
func isRepeatedPhrase(text string) bool {
	fields := strings.Fields(text)
	if len(fields) < phraseRepeatLimit {
		return false
	}

	// Check phrase lengths of one to three words.
	for phraseLen := 1; phraseLen <= 3; phraseLen++ {
		if len(fields) < phraseLen*phraseRepeatLimit {
			continue
		}
		phrase := strings.Join(fields[:phraseLen], " ")
		count := strings.Count(text, phrase)
		if count >= phraseRepeatLimit && len(phrase)*count*2 >= len(text) {
			return true
		}
	}
	return false
}

// bodyText returns the document body text with common non-content elements
// removed and paragraphs joined.
func bodyText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return strings.TrimSpace(doc.Text())
	}

	clone := body.Clone()
	clone.Find("header, footer, nav, aside, script, style, .header, .footer, .navigation, .sidebar, .menu").Remove()

	var parts []string
	clone.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}
	return strings.TrimSpace(clone.Text())
}
