package validation

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// minURLTitleLength and maxURLTitleLength bound titles derived from URL slugs.
	minURLTitleLength = 5
	maxURLTitleLength = 200
)

// slugPrefixes are common path-segment prefixes that carry no title information.
var slugPrefixes = []string{"article-", "post-", "story-", "news-", "entry-", "page-"}

// slugExtensions are path extensions stripped before slug parsing.
var slugExtensions = []string{".html", ".htm", ".php", ".asp", ".aspx", ".jsp", ".shtml"}

var (
	// trailingIDPattern matches trailing numeric IDs like "-1234567" on slugs.
	trailingIDPattern = regexp.MustCompile(`[-_]\d{4,}$`)
	// camelBoundaryPattern finds lower-to-upper camelCase transitions.
	camelBoundaryPattern = regexp.MustCompile(`([a-z])([A-Z])`)
	// strongWordPattern matches a word of three or more letters.
	strongWordPattern = regexp.MustCompile(`[A-Za-z]{3}`)
)

// ExtractTitleFromURL derives a human-readable title from the last path
// segment of an article URL. Returns "" when no plausible title can be
// derived.
func ExtractTitleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segment := lastPathSegment(parsed.Path)
	if segment == "" {
		return ""
	}

	for _, ext := range slugExtensions {
		segment = strings.TrimSuffix(segment, ext)
	}
	for _, prefix := range slugPrefixes {
		segment = strings.TrimPrefix(segment, prefix)
	}
	segment = trailingIDPattern.ReplaceAllString(segment, "")

	segment = strings.ReplaceAll(segment, "-", " ")
	segment = strings.ReplaceAll(segment, "_", " ")
	segment = camelBoundaryPattern.ReplaceAllString(segment, "$1 $2")

	title := titleCaseWords(segment)
	if len(title) < minURLTitleLength || len(title) > maxURLTitleLength {
		return ""
	}
	if !strongWordPattern.MatchString(title) {
		return ""
	}
	return title
}

// lastPathSegment returns the last non-empty segment of a URL path.
func lastPathSegment(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			return seg
		}
	}
	return ""
}

// titleCaseWords uppercases the first letter of each whitespace-separated word.
func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
