// Package validation classifies scraped text and pages: corrupted or
// gibberish text, error/protection pages, and article/title quality.
// Every function is total; ambiguous input resolves to "invalid".
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// maxNonASCIIRatio is the non-ASCII rune ratio above which text is corrupted.
	maxNonASCIIRatio = 0.5
	// minWordLikeRatio is the word-like token ratio below which text is corrupted.
	minWordLikeRatio = 0.3
	// wordRatioCheckLength is the minimum text length before the token ratio check applies.
	wordRatioCheckLength = 100
	// gibberishMinRepeat is how many consecutive repeats of a short pattern indicate gibberish.
	gibberishMinRepeat = 5
	// gibberishPatternMin and gibberishPatternMax bound the repeated pattern length.
	gibberishPatternMin = 2
	gibberishPatternMax = 5
)

var (
	// controlRunPattern matches runs of control characters (excluding tab/newline/CR).
	controlRunPattern = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]{2,}")
	// replacementRunPattern matches repeated Unicode replacement characters.
	replacementRunPattern = regexp.MustCompile("�{2,}")
	// strayControlPattern matches individual control characters for sanitization.
	strayControlPattern = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f�]")
	// whitespacePattern collapses whitespace runs.
	whitespacePattern = regexp.MustCompile(`\s+`)
	// wordLikePattern matches tokens containing at least two consecutive letters.
	wordLikePattern = regexp.MustCompile(`[a-zA-Z]{2}`)
)

// IsCorruptedText reports whether text looks like binary garbage, a broken
// character encoding, or keyboard-mash gibberish. Any single signal is
// sufficient to classify the text as corrupted.
func IsCorruptedText(text string) bool {
	if text == "" {
		return false
	}

	if nonASCIIRatio(text) > maxNonASCIIRatio {
		return true
	}

	if controlRunPattern.MatchString(text) || replacementRunPattern.MatchString(text) {
		return true
	}

	if len(text) > wordRatioCheckLength && wordLikeRatio(text) < minWordLikeRatio {
		return true
	}

	return hasRepeatedGibberish(text)
}

// SanitizeContent strips control characters and replacement-character runs,
// then collapses whitespace.
func SanitizeContent(text string) string {
	cleaned := strayControlPattern.ReplaceAllString(text, "")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// nonASCIIRatio returns the fraction of runes outside the ASCII range.
func nonASCIIRatio(text string) float64 {
	total := 0
	nonASCII := 0
	for _, r := range text {
		total++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nonASCII) / float64(total)
}

// wordLikeRatio returns the fraction of whitespace-separated tokens that
// contain at least two consecutive letters.
func wordLikeRatio(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}
	wordLike := 0
	for _, token := range tokens {
		if wordLikePattern.MatchString(token) {
			wordLike++
		}
	}
	return float64(wordLike) / float64(len(tokens))
}

// hasRepeatedGibberish reports whether the same 2-5 character pattern repeats
// at least gibberishMinRepeat times consecutively. RE2 has no backreferences,
// so the scan is done manually.
func hasRepeatedGibberish(text string) bool {
	for patLen := gibberishPatternMin; patLen <= gibberishPatternMax; patLen++ {
		span := patLen * gibberishMinRepeat
		if len(text) < span {
			continue
		}
		for i := 0; i+span <= len(text); i++ {
			pattern := text[i : i+patLen]
			if strings.TrimSpace(pattern) == "" {
				continue
			}
			repeated := true
			for j := 1; j < gibberishMinRepeat; j++ {
				if text[i+j*patLen:i+(j+1)*patLen] != pattern {
					repeated = false
					break
				}
			}
			if repeated {
				return true
			}
		}
	}
	return false
}
