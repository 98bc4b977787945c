package validation

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/newscope/internal/logger"
)

const (
	// minPageTextLength is the visible-text length below which a page cannot be article-bearing.
	minPageTextLength = 200
	// errorPagePenalty is subtracted from confidence per matched error phrase.
	errorPagePenalty = 30
	// corruptionPenalty is subtracted when the page text is corrupted.
	corruptionPenalty = 50
	// shortContentPenalty is subtracted when visible text is below the minimum.
	shortContentPenalty = 40
	// maxConfidence is the upper bound of the 0-100 confidence scale.
	maxConfidence = 100
)

var (
	// anchorTagPattern counts anchor tags as a structural-richness signal.
	anchorTagPattern = regexp.MustCompile(`(?i)<a[\s>]`)
	// htmlTagPattern strips markup for rough visible-text estimation.
	htmlTagPattern = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)
)

// ContentValidationResult classifies a fetched page.
type ContentValidationResult struct {
	// IsValid reports whether the page can carry article content.
	IsValid bool
	// IsErrorPage reports whether the page matched error/protection phrases.
	IsErrorPage bool
	// Confidence is a 0-100 score in the page classification.
	Confidence int
	// ErrorIndicators lists the error phrases that matched.
	ErrorIndicators []string
	// LinkCount is the number of anchor tags found.
	LinkCount int
}

// PageStats tracks page validation statistics.
type PageStats struct {
	TotalProcessed int64
	ValidPages     int64
	ErrorPages     int64
	CorruptedPages int64
	ShortPages     int64
}

// PageValidator classifies raw fetched HTML before extraction.
type PageValidator struct {
	logger logger.Interface
	stats  *PageStats
}

// NewPageValidator creates a new page validator.
func NewPageValidator(log logger.Interface) *PageValidator {
	return &PageValidator{
		logger: log,
		stats:  &PageStats{},
	}
}

// GetStats returns validation statistics.
func (v *PageValidator) GetStats() PageStats {
	return *v.stats
}

// ResetStats resets validation statistics.
func (v *PageValidator) ResetStats() {
	v.stats = &PageStats{}
}

// ValidatePage classifies raw HTML as article-bearing, an error/protection
// page, or corrupted. It never fails; a page it cannot judge is invalid
// with low confidence.
func (v *PageValidator) ValidatePage(html string) ContentValidationResult {
	v.stats.TotalProcessed++

	text := StripHTML(html)
	result := ContentValidationResult{
		Confidence: maxConfidence,
		LinkCount:  len(anchorTagPattern.FindAllStringIndex(html, -1)),
	}

	if indicators := MatchErrorPhrases(text); len(indicators) > 0 {
		result.IsErrorPage = true
		result.ErrorIndicators = indicators
		result.Confidence -= errorPagePenalty * len(indicators)
	}

	if IsCorruptedText(text) {
		result.Confidence -= corruptionPenalty
		v.stats.CorruptedPages++
	}

	if len(text) < minPageTextLength {
		result.Confidence -= shortContentPenalty
		v.stats.ShortPages++
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}

	result.IsValid = !result.IsErrorPage && result.Confidence >= maxConfidence/2

	switch {
	case result.IsValid:
		v.stats.ValidPages++
	case result.IsErrorPage:
		v.stats.ErrorPages++
		v.logger.Debug("Page validation failed: error page",
			"indicators", result.ErrorIndicators,
			"confidence", result.Confidence)
	default:
		v.logger.Debug("Page validation failed: low confidence",
			"confidence", result.Confidence,
			"text_length", len(text),
			"link_count", result.LinkCount)
	}

	return result
}

// StripHTML removes script/style blocks and tags, returning collapsed
// visible text. A rough regex pass is enough for classification; real
// extraction uses a proper parser.
func StripHTML(html string) string {
	text := htmlTagPattern.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
