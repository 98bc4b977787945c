package validation

import (
	"regexp"
	"strings"
)

const (
	// DefaultMinContentLength is the minimum article body length in characters.
	DefaultMinContentLength = 200
	// minSentenceBoundaries is the minimum number of sentence transitions
	// required for text to read as prose rather than a link farm.
	minSentenceBoundaries = 3
	// minTitleLength and maxTitleLength bound acceptable title lengths.
	minTitleLength = 3
	maxTitleLength = 500
)

// errorPagePhrases are case-insensitive substrings that mark error or
// bot-protection pages rather than article content.
var errorPagePhrases = []string{
	"access denied",
	"cloudflare",
	"captcha",
	"just a moment",
	"checking your browser",
	"attention required",
	"are you a robot",
	"please enable javascript",
	"403 forbidden",
	"404 not found",
	"page not found",
	"too many requests",
	"rate limit exceeded",
	"service unavailable",
	"ddos protection",
	"verify you are human",
}

// placeholderTitles are titles that carry no information about the article.
var placeholderTitles = []string{
	"untitled",
	"404",
	"403",
	"error",
	"access denied",
	"page not found",
	"not found",
	"forbidden",
	"home",
	"index",
}

// sentenceBoundaryPattern matches end-of-sentence punctuation followed by a capitalized word.
var sentenceBoundaryPattern = regexp.MustCompile(`[.!?]+\s+[A-Z]`)

// IsValidArticleContent reports whether content looks like a real article
// body using the default minimum length.
func IsValidArticleContent(content string) bool {
	return IsValidArticleContentMin(content, DefaultMinContentLength)
}

// IsValidArticleContentMin reports whether content looks like a real article
// body of at least minLength characters: long enough, non-whitespace-majority,
// free of error-page phrases, not corrupted, and containing sentence structure.
func IsValidArticleContentMin(content string, minLength int) bool {
	if len(content) < minLength {
		return false
	}

	trimmed := strings.TrimSpace(content)
	if len(trimmed)*2 < len(content) {
		return false
	}

	if MatchErrorPhrases(content) != nil {
		return false
	}

	if IsCorruptedText(content) {
		return false
	}

	return len(sentenceBoundaryPattern.FindAllString(content, minSentenceBoundaries)) >= minSentenceBoundaries
}

// MatchErrorPhrases returns the error/protection-page phrases found in text,
// or nil when none match. Matching is case-insensitive substring search.
func MatchErrorPhrases(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, phrase := range errorPagePhrases {
		if strings.Contains(lower, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// IsValidTitle reports whether title is a usable article title: bounded
// length, not corrupted, not a known placeholder, and containing at least
// one word of two or more letters.
func IsValidTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	if len(trimmed) < minTitleLength || len(trimmed) > maxTitleLength {
		return false
	}

	if IsCorruptedText(trimmed) {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, placeholder := range placeholderTitles {
		if lower == placeholder {
			return false
		}
	}

	return wordLikePattern.MatchString(trimmed)
}
