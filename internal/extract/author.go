package extract

import (
	"regexp"
	"strings"
)

const (
	// maxAuthorLength is the byline length above which line/sentence
	// truncation kicks in.
	maxAuthorLength = 100
	// maxNameLength is the length above which a name-pattern match is tried.
	maxNameLength = 80
	// hardTruncateAt is the final word-boundary truncation limit.
	hardTruncateAt = 60
)

// contactBoilerplate marks author matches that are actually contact blocks.
var contactBoilerplate = []string{
	"CONTACT",
	"PRESS CONTACT",
	"MEDIA CONTACT",
	"FOR IMMEDIATE RELEASE",
	"EMAIL",
	"PHONE",
}

// bioMarkers are substrings that start a biography sentence appended to a
// byline. The earliest occurrence truncates the author string.
var bioMarkers = []string{
	" is a ",
	" is an ",
	" has been ",
	" has worked ",
	" has covered ",
	" worked at ",
	" worked for ",
	" worked in ",
	" is a veteran ",
	" is the former ",
	" is a senior ",
	" writes for ",
	" writes about ",
	" reports on ",
	" specializes in ",
	" covers topics ",
	" covers ",
	" won the ",
	" received the ",
	" was awarded ",
}

var (
	// sentenceBreakPattern finds a sentence end followed by a new sentence.
	sentenceBreakPattern = regexp.MustCompile(`\.\s+[A-Z]`)
	// capitalizedNamePattern matches a leading capitalized personal name.
	capitalizedNamePattern = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z'\-]+){1,3}`)
	// dateLikePattern flags author strings that are actually dates.
	dateLikePattern = regexp.MustCompile(`(?i)^\s*(?:\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}|(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2})`)
	// timeLikePattern flags times like "10:30 AM".
	timeLikePattern = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*(?:am|pm)?`)
	// bylinePrefixPattern strips a leading "By " from bylines.
	bylinePrefixPattern = regexp.MustCompile(`(?i)^by[:\s]+`)
)

// isAuthorBoilerplate reports whether text is contact-block boilerplate
// rather than a byline.
func isAuthorBoilerplate(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, marker := range contactBoilerplate {
		if strings.HasPrefix(upper, marker) {
			return true
		}
	}
	return false
}

// looksLikeDateString reports whether text reads as a date or time rather
// than a person's name.
func looksLikeDateString(text string) bool {
	return dateLikePattern.MatchString(text) || timeLikePattern.MatchString(text)
}

// CleanAuthorName reduces a byline-plus-biography string to the name
// itself. Biography markers and sentence breaks truncate the string at
// their earliest occurrence; overlong remainders fall back to the first
// line, a capitalized-name match, and finally a word-boundary cut.
func CleanAuthorName(author string) string {
	name := strings.TrimSpace(author)
	if name == "" {
		return ""
	}

	name = bylinePrefixPattern.ReplaceAllString(name, "")

	cut := len(name)
	lower := strings.ToLower(name)
	for _, marker := range bioMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	if loc := sentenceBreakPattern.FindStringIndex(name); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	name = strings.TrimSpace(name[:cut])
	name = strings.TrimRight(name, ",.")

	if len(name) > maxAuthorLength {
		name = firstLineOrSentence(name)
	}

	if len(name) > maxNameLength {
		if m := capitalizedNamePattern.FindString(name); m != "" {
			name = m
		} else {
			name = truncateAtWordBoundary(name, hardTruncateAt)
		}
	}

	return strings.TrimSpace(name)
}

// firstLineOrSentence keeps the first line, or the first sentence when the
// line itself is still short enough.
func firstLineOrSentence(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, '.'); idx > 0 && idx <= maxAuthorLength {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// truncateAtWordBoundary cuts s at the last space before limit.
func truncateAtWordBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndexByte(s[:limit], ' ')
	if cut <= 0 {
		cut = limit
	}
	return strings.TrimSpace(s[:cut])
}
