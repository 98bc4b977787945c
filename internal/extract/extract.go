// Package extract pulls article fields (title, body, author, publish date)
// out of raw HTML using a selector config and a layered recovery strategy.
// Extraction never fails for bad input: exhausted recovery yields a
// low-confidence result the caller can threshold on.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/structure"
	"github.com/jonesrussell/newscope/internal/validation"
)

// Extraction method tags recorded on ArticleContent.
const (
	// MethodSelectors marks a normal selector-driven extraction.
	MethodSelectors = "selectors"
	// MethodValidationFailed marks content that failed article validation.
	MethodValidationFailed = "validation_failed"
	// MethodFailed marks a hard technical failure (unparseable input).
	MethodFailed = "failed"
)

// Confidence levels for the tiers of the recovery chain.
const (
	// ConfidencePrimary is for a direct hit on the configured selector.
	ConfidencePrimary = 0.9
	// ConfidenceVariation is for a hit on a structural selector variation.
	ConfidenceVariation = 0.7
	// ConfidenceClassPattern is for a broad [class*=...] base-class match.
	ConfidenceClassPattern = 0.6
	// ConfidenceFallback is for a generic article-container fallback.
	ConfidenceFallback = 0.5
	// ConfidenceBodyText is for the whole-body last resort.
	ConfidenceBodyText = 0.3
	// ConfidenceRejected marks an unusable result.
	ConfidenceRejected = 0.1
)

// fallbackTitle is set when every title strategy fails; upstream content
// validation catches it.
const fallbackTitle = "Untitled"

// ArticleContent is the extraction result. Immutable after return.
type ArticleContent struct {
	// Title is the article headline.
	Title string
	// Content is the cleaned article body.
	Content string
	// Author is the byline, empty when none was found.
	Author string
	// PublishDate is a date-only timestamp; zero when none was found.
	PublishDate time.Time
	// ExtractionMethod tags the strategy that produced this result.
	ExtractionMethod string
	// Confidence is 0.0-1.0; <= 0.1 means unusable, 0 means hard failure.
	Confidence float64
}

// Extractor extracts article fields from HTML.
type Extractor struct {
	logger logger.Interface
}

// NewExtractor creates an article extractor.
func NewExtractor(log logger.Interface) *Extractor {
	return &Extractor{logger: log}
}

// ExtractArticle extracts the four article fields from html using the
// selector config, recovering through the tier chain where selectors miss.
func (e *Extractor) ExtractArticle(html string, cfg structure.SelectorConfig, sourceURL string) ArticleContent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Error("Failed to parse HTML for extraction",
			"url", sourceURL,
			"html_length", len(html),
			"error", err.Error())
		return ArticleContent{ExtractionMethod: MethodFailed, Confidence: 0}
	}

	title := e.extractTitle(doc, cfg.TitleSelector, sourceURL)

	content, contentConfidence := e.extractContent(doc, cfg.ContentSelector)
	content = validation.SanitizeContent(content)
	if !validation.IsValidArticleContent(content) {
		e.logger.Debug("Extracted content failed validation",
			"url", sourceURL,
			"content_length", len(content))
		return ArticleContent{
			Title:            title,
			Content:          content,
			ExtractionMethod: MethodValidationFailed,
			Confidence:       ConfidenceRejected,
		}
	}

	author := e.extractAuthor(doc, cfg.AuthorSelector)
	publishDate := ExtractPublishDate(doc, cfg.DateSelector)

	return ArticleContent{
		Title:            title,
		Content:          content,
		Author:           author,
		PublishDate:      publishDate,
		ExtractionMethod: MethodSelectors,
		Confidence:       contentConfidence,
	}
}

// extractTitle runs the title selector with recovery, falling back to the
// og:title meta value, then a URL-derived title, then "Untitled".
func (e *Extractor) extractTitle(doc *goquery.Document, selector, sourceURL string) string {
	title := firstMatchText(doc, structure.GenerateSelectorVariations(selector))
	if title == "" {
		title = firstMatchText(doc, titleFallbackSelectors)
	}
	title = validation.SanitizeContent(title)

	if validation.IsValidTitle(title) {
		return title
	}

	if ogTitle := validation.SanitizeContent(metaProperty(doc, "og:title")); validation.IsValidTitle(ogTitle) {
		return ogTitle
	}

	if urlTitle := validation.ExtractTitleFromURL(sourceURL); validation.IsValidTitle(urlTitle) {
		return urlTitle
	}

	return fallbackTitle
}

// extractAuthor runs the author selector (or a fallback-only search when
// none is configured), rejects boilerplate and date-like matches, and
// cleans the byline down to a name.
func (e *Extractor) extractAuthor(doc *goquery.Document, selector string) string {
	var candidates []string
	if selector != "" {
		candidates = structure.GenerateSelectorVariations(selector)
	}
	candidates = append(candidates, authorFallbackSelectors...)

	for _, sel := range candidates {
		text := validation.SanitizeContent(selectionText(doc, sel))
		if text == "" {
			continue
		}
		if isAuthorBoilerplate(text) || looksLikeDateString(text) {
			continue
		}
		if name := CleanAuthorName(text); name != "" {
			return name
		}
	}
	return ""
}

// firstMatchText returns the first non-empty trimmed text among the
// selectors, tolerating invalid selector syntax.
func firstMatchText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := selectionText(doc, sel); text != "" {
			return text
		}
	}
	return ""
}

// selectionText returns the trimmed text of the first element matching sel.
// An invalid selector simply matches nothing: goquery panics on malformed
// selectors, so matching is guarded.
func selectionText(doc *goquery.Document, sel string) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if sel == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(sel).First().Text())
}

// selectionAll returns the paragraph-joined text of every element matching
// sel, with the same invalid-selector tolerance as selectionText.
func selectionAll(doc *goquery.Document, sel string) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if sel == "" {
		return ""
	}

	var parts []string
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if part := strings.TrimSpace(s.Text()); part != "" {
			parts = append(parts, part)
		}
	})
	return strings.Join(parts, "\n\n")
}

// metaProperty returns the content of <meta property="...">.
func metaProperty(doc *goquery.Document, property string) string {
	value, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(value)
}

// metaName returns the content of <meta name="...">.
func metaName(doc *goquery.Document, name string) string {
	value, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(value)
}
