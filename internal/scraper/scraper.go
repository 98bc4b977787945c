// Package scraper sequences fetching, structure detection, extraction and
// validation into single article and source-listing scrape operations.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/jonesrussell/newscope/internal/config"
	"github.com/jonesrussell/newscope/internal/extract"
	"github.com/jonesrussell/newscope/internal/fetch"
	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/structure"
	"github.com/jonesrussell/newscope/internal/validation"
)

// degradedConfidenceCap bounds confidence when page validation flagged the
// fetched document as error-like.
const degradedConfidenceCap = 0.5

// insufficientContentChars is the content length below which an extraction
// is offered to the reanalyzer.
const insufficientContentChars = 200

// htmxRetryTimeout gives the second HTMX load longer to settle than the
// default browser navigation.
const htmxRetryTimeout = 2 * config.DefaultBrowserTimeout

// ContentFetcher selects a fetch method and returns page content.
type ContentFetcher interface {
	GetContent(ctx context.Context, pageURL string, isArticle bool) (*fetch.Result, error)
}

// StructureDetector resolves selector configs for a page.
type StructureDetector interface {
	DetectStructure(ctx context.Context, pageURL, html string) structure.SelectorConfig
}

// PageValidator judges whether fetched HTML looks like a real page.
type PageValidator interface {
	ValidatePage(html string) validation.ContentValidationResult
}

// Reanalyzer attempts to improve an insufficient extraction. Implementations
// receive the raw HTML and the current best-effort result and return an
// improved one; an error leaves the original result in place.
type Reanalyzer interface {
	Reanalyze(ctx context.Context, pageURL, html string, current extract.ArticleContent) (extract.ArticleContent, error)
}

// Params bundles the collaborators for NewUnifiedScraper.
type Params struct {
	Fetcher    ContentFetcher
	Detector   StructureDetector
	Validator  PageValidator
	Extractor  *extract.Extractor
	Browser    fetch.PageFetcher
	Reanalyzer Reanalyzer
	Config     config.ScraperConfig
	Logger     logger.Interface
}

// UnifiedScraper orchestrates the scrape pipeline for articles and for
// source listing pages.
type UnifiedScraper struct {
	fetcher    ContentFetcher
	detector   StructureDetector
	validator  PageValidator
	extractor  *extract.Extractor
	browser    fetch.PageFetcher
	reanalyzer Reanalyzer
	links      *LinkCollector
	logger     logger.Interface
}

// NewUnifiedScraper constructs a scraper from its collaborators. Browser and
// Reanalyzer are optional.
func NewUnifiedScraper(p Params) *UnifiedScraper {
	log := p.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &UnifiedScraper{
		fetcher:    p.Fetcher,
		detector:   p.Detector,
		validator:  p.Validator,
		extractor:  p.Extractor,
		browser:    p.Browser,
		reanalyzer: p.Reanalyzer,
		links:      NewLinkCollector(p.Config, log),
		logger:     log,
	}
}

// ScrapeArticle fetches pageURL and extracts an article from it. When
// supplied is non-nil the structure detection step is skipped and the given
// selectors are used directly. The returned result is best-effort; only a
// total fetch failure produces an error.
func (s *UnifiedScraper) ScrapeArticle(
	ctx context.Context,
	pageURL string,
	supplied *structure.SelectorConfig,
) (extract.ArticleContent, error) {
	scrapeID := uuid.NewString()
	log := s.logger.With("scrape_id", scrapeID, "url", pageURL)

	result, err := s.fetcher.GetContent(ctx, pageURL, true)
	if err != nil {
		log.Error("Article fetch failed", "error", err)
		return extract.ArticleContent{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	log.Debug("Article page fetched",
		"method", string(result.Method),
		"html_length", len(result.HTML),
		"final_url", result.FinalURL)

	pageCheck := s.validator.ValidatePage(result.HTML)
	if !pageCheck.IsValid {
		log.Warn("Fetched page failed validation, continuing",
			"confidence", pageCheck.Confidence,
			"error_page", pageCheck.IsErrorPage,
			"indicators", strings.Join(pageCheck.ErrorIndicators, ", "))
	}

	selCfg := s.resolveSelectors(ctx, pageURL, result, supplied, log)

	article := s.extractor.ExtractArticle(result.HTML, selCfg, pageURL)

	if s.reanalyzer != nil && isInsufficient(article) {
		article = s.reanalyze(ctx, pageURL, result.HTML, article, log)
	}

	if article.PublishDate.IsZero() {
		article.PublishDate = fallbackPublishDate(result.HTML)
	}

	article.ExtractionMethod = fmt.Sprintf("%s_%s", result.Method, article.ExtractionMethod)

	if !pageCheck.IsValid {
		article.Confidence = degradeConfidence(article.Confidence, pageCheck.Confidence)
	}

	log.Info("Article scrape finished",
		"extraction_method", article.ExtractionMethod,
		"confidence", article.Confidence,
		"title_length", len(article.Title),
		"content_length", len(article.Content))

	return article, nil
}

// ScrapeSource fetches a listing page and returns the deduplicated article
// links discovered on it, capped at the configured maximum.
func (s *UnifiedScraper) ScrapeSource(ctx context.Context, sourceURL string) ([]string, error) {
	scrapeID := uuid.NewString()
	log := s.logger.With("scrape_id", scrapeID, "url", sourceURL)

	result, err := s.fetcher.GetContent(ctx, sourceURL, false)
	if err != nil {
		log.Error("Source fetch failed", "error", err)
		return nil, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}

	html := result.HTML
	if result.Method == fetch.MethodBrowser {
		html = s.loadHTMXContent(ctx, sourceURL, html, log)
	}

	links, err := s.links.Collect(sourceURL, html)
	if err != nil {
		log.Error("Link extraction failed", "error", err)
		return nil, fmt.Errorf("extract links from %s: %w", sourceURL, err)
	}

	log.Info("Source scrape finished",
		"method", string(result.Method),
		"links", len(links))

	return links, nil
}

// resolveSelectors returns the supplied config or runs structure detection.
func (s *UnifiedScraper) resolveSelectors(
	ctx context.Context,
	pageURL string,
	result *fetch.Result,
	supplied *structure.SelectorConfig,
	log logger.Interface,
) structure.SelectorConfig {
	if supplied != nil {
		log.Debug("Using supplied selector config",
			"content_selector", supplied.ContentSelector)
		return *supplied
	}

	detectURL := result.FinalURL
	if detectURL == "" {
		detectURL = pageURL
	}
	return s.detector.DetectStructure(ctx, detectURL, result.HTML)
}

// reanalyze asks the reanalyzer for an improved result and keeps whichever
// of the two is better.
func (s *UnifiedScraper) reanalyze(
	ctx context.Context,
	pageURL, html string,
	current extract.ArticleContent,
	log logger.Interface,
) extract.ArticleContent {
	log.Info("Extraction insufficient, requesting reanalysis",
		"extraction_method", current.ExtractionMethod,
		"confidence", current.Confidence,
		"content_length", len(current.Content))

	improved, err := s.reanalyzer.Reanalyze(ctx, pageURL, html, current)
	if err != nil {
		log.Warn("Reanalysis failed, keeping original result", "error", err)
		return current
	}
	if isInsufficient(improved) && !isInsufficient(current) {
		return current
	}
	if len(improved.Content) < len(current.Content) && improved.Confidence <= current.Confidence {
		return current
	}
	return improved
}

// isInsufficient reports whether an extraction should be offered for
// reanalysis.
func isInsufficient(article extract.ArticleContent) bool {
	switch article.ExtractionMethod {
	case extract.MethodFailed, extract.MethodValidationFailed:
		return true
	}
	if len(strings.TrimSpace(article.Content)) < insufficientContentChars {
		return true
	}
	return article.Confidence <= extract.ConfidenceBodyText
}

// fallbackPublishDate runs the full date strategy chain without a selector
// hint.
func fallbackPublishDate(html string) time.Time {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return time.Time{}
	}
	return extract.ExtractPublishDate(doc, "")
}

// degradeConfidence scales confidence by the validator's normalized score
// and caps the result.
func degradeConfidence(confidence float64, validatorConfidence int) float64 {
	scaled := confidence * float64(validatorConfidence) / 100
	if scaled > degradedConfidenceCap {
		return degradedConfidenceCap
	}
	return scaled
}

// loadHTMXContent reloads a browser-fetched listing when it carries HTMX
// markers, retrying once with a scroll pass if too few links appeared.
func (s *UnifiedScraper) loadHTMXContent(
	ctx context.Context,
	sourceURL, html string,
	log logger.Interface,
) string {
	if s.browser == nil || !fetch.HasHTMXMarkers(html) {
		return html
	}

	log.Debug("HTMX markers on source page, reloading with content wait")

	loaded, err := s.browser.FetchPage(ctx, sourceURL, fetch.BrowserOptions{
		HandleHTMX: true,
	})
	if err != nil {
		log.Warn("HTMX reload failed, using initial DOM", "error", err)
		return html
	}

	if s.links.countCandidates(sourceURL, loaded) >= minSourceLinks {
		return loaded
	}

	log.Debug("Few links after HTMX load, retrying with scroll and longer wait")

	retried, err := s.browser.FetchPage(ctx, sourceURL, fetch.BrowserOptions{
		HandleHTMX:   true,
		ScrollToLoad: true,
		Timeout:      htmxRetryTimeout,
	})
	if err != nil {
		log.Warn("HTMX retry failed, using first load", "error", err)
		return loaded
	}
	return retried
}
