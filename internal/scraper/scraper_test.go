package scraper_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonesrussell/newscope/internal/config"
	"github.com/jonesrussell/newscope/internal/extract"
	"github.com/jonesrussell/newscope/internal/fetch"
	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/scraper"
	"github.com/jonesrussell/newscope/internal/structure"
	"github.com/jonesrussell/newscope/internal/validation"
)

const scrapedArticleHTML = `<html><body>
<h1 class="headline">Council Approves Transit Plan</h1>
<span class="byline">By Jane Doe</span>
<div class="story-body"><p>The city council voted on Tuesday to approve the new transit plan after months of debate. Officials said the first phase will break ground in the spring. Residents raised concerns about construction noise near schools. The mayor promised weekly updates as work progresses.</p></div>
</body></html>`

// stubFetcher returns a scripted fetch result.
type stubFetcher struct {
	result *fetch.Result
	err    error
	calls  int
}

func (f *stubFetcher) GetContent(_ context.Context, _ string, _ bool) (*fetch.Result, error) {
	f.calls++
	return f.result, f.err
}

// stubDetector returns a fixed selector config and counts invocations.
type stubDetector struct {
	cfg   structure.SelectorConfig
	calls int
}

func (d *stubDetector) DetectStructure(_ context.Context, _, _ string) structure.SelectorConfig {
	d.calls++
	return d.cfg
}

// stubValidator returns a scripted page classification.
type stubValidator struct {
	result validation.ContentValidationResult
}

func (v *stubValidator) ValidatePage(string) validation.ContentValidationResult {
	return v.result
}

func validPage() validation.ContentValidationResult {
	return validation.ContentValidationResult{IsValid: true, Confidence: 100}
}

func storyConfig() structure.SelectorConfig {
	return structure.SelectorConfig{
		TitleSelector:   "h1.headline",
		ContentSelector: ".story-body",
		AuthorSelector:  ".byline",
		Confidence:      0.9,
	}
}

func newScraper(fetcher scraper.ContentFetcher, detector scraper.StructureDetector, validator scraper.PageValidator) *scraper.UnifiedScraper {
	return scraper.NewUnifiedScraper(scraper.Params{
		Fetcher:   fetcher,
		Detector:  detector,
		Validator: validator,
		Extractor: extract.NewExtractor(logger.NewNoOp()),
		Config:    config.ScraperConfig{},
		Logger:    logger.NewNoOp(),
	})
}

func TestScrapeArticle_HappyPath(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{result: &fetch.Result{
		HTML:   scrapedArticleHTML,
		Method: fetch.MethodHTTP,
	}}
	detector := &stubDetector{cfg: storyConfig()}

	s := newScraper(fetcher, detector, &stubValidator{result: validPage()})
	article, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if article.ExtractionMethod != "http_selectors" {
		t.Fatalf("expected method http_selectors, got %s", article.ExtractionMethod)
	}
	if article.Confidence != extract.ConfidencePrimary {
		t.Fatalf("expected primary confidence, got %f", article.Confidence)
	}
	if article.Title != "Council Approves Transit Plan" {
		t.Fatalf("unexpected title %q", article.Title)
	}
	if detector.calls != 1 {
		t.Fatalf("expected one detection, got %d", detector.calls)
	}
}

func TestScrapeArticle_SuppliedConfigSkipsDetection(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{result: &fetch.Result{
		HTML:   scrapedArticleHTML,
		Method: fetch.MethodHTTP,
	}}
	detector := &stubDetector{cfg: storyConfig()}

	s := newScraper(fetcher, detector, &stubValidator{result: validPage()})
	supplied := storyConfig()
	_, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", &supplied)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detector.calls != 0 {
		t.Fatal("expected detection to be skipped when a config is supplied")
	}
}

func TestScrapeArticle_BrowserMethodPrefix(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{result: &fetch.Result{
		HTML:   scrapedArticleHTML,
		Method: fetch.MethodBrowser,
	}}

	s := newScraper(fetcher, &stubDetector{cfg: storyConfig()}, &stubValidator{result: validPage()})
	article, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if article.ExtractionMethod != "browser_selectors" {
		t.Fatalf("expected method browser_selectors, got %s", article.ExtractionMethod)
	}
}

func TestScrapeArticle_FetchFailure(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("all fetch methods failed")
	s := newScraper(&stubFetcher{err: fetchErr}, &stubDetector{cfg: storyConfig()},
		&stubValidator{result: validPage()})

	_, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", nil)
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestScrapeArticle_InvalidPageDegradesConfidence(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{result: &fetch.Result{
		HTML:   scrapedArticleHTML,
		Method: fetch.MethodHTTP,
	}}
	validator := &stubValidator{result: validation.ContentValidationResult{
		IsValid:    false,
		Confidence: 40,
	}}

	s := newScraper(fetcher, &stubDetector{cfg: storyConfig()}, validator)
	article, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0.9 scaled by 0.4, under the 0.5 cap.
	if article.Confidence >= extract.ConfidencePrimary {
		t.Fatalf("expected degraded confidence, got %f", article.Confidence)
	}
	if article.Confidence > 0.5 {
		t.Fatalf("expected degraded confidence capped at 0.5, got %f", article.Confidence)
	}
}

// stubReanalyzer returns a scripted improved result.
type stubReanalyzer struct {
	improved extract.ArticleContent
	err      error
	calls    int
}

func (r *stubReanalyzer) Reanalyze(_ context.Context, _, _ string, _ extract.ArticleContent) (extract.ArticleContent, error) {
	r.calls++
	return r.improved, r.err
}

func TestScrapeArticle_ReanalyzerInvokedOnInsufficientResult(t *testing.T) {
	t.Parallel()

	thinHTML := `<html><body><h1>Short Page</h1><div class="story-body"><p>Too little.</p></div></body></html>`
	fetcher := &stubFetcher{result: &fetch.Result{HTML: thinHTML, Method: fetch.MethodHTTP}}

	improved := extract.ArticleContent{
		Title:            "Recovered Title",
		Content:          strings.Repeat("Recovered sentence text. And more follows here. Even more text now. ", 5),
		ExtractionMethod: "selectors",
		Confidence:       0.8,
	}
	reanalyzer := &stubReanalyzer{improved: improved}

	s := scraper.NewUnifiedScraper(scraper.Params{
		Fetcher:    fetcher,
		Detector:   &stubDetector{cfg: storyConfig()},
		Validator:  &stubValidator{result: validPage()},
		Extractor:  extract.NewExtractor(logger.NewNoOp()),
		Reanalyzer: reanalyzer,
		Config:     config.ScraperConfig{},
		Logger:     logger.NewNoOp(),
	})

	article, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reanalyzer.calls != 1 {
		t.Fatalf("expected one reanalysis, got %d", reanalyzer.calls)
	}
	if article.Title != "Recovered Title" {
		t.Fatalf("expected reanalyzed result, got title %q", article.Title)
	}
	if article.ExtractionMethod != "http_selectors" {
		t.Fatalf("expected method prefix on reanalyzed result, got %s", article.ExtractionMethod)
	}
}

func TestScrapeArticle_ReanalyzerErrorKeepsOriginal(t *testing.T) {
	t.Parallel()

	thinHTML := `<html><body><h1>Short Page</h1><div class="story-body"><p>Too little.</p></div></body></html>`
	fetcher := &stubFetcher{result: &fetch.Result{HTML: thinHTML, Method: fetch.MethodHTTP}}
	reanalyzer := &stubReanalyzer{err: errors.New("reanalysis unavailable")}

	s := scraper.NewUnifiedScraper(scraper.Params{
		Fetcher:    fetcher,
		Detector:   &stubDetector{cfg: storyConfig()},
		Validator:  &stubValidator{result: validPage()},
		Extractor:  extract.NewExtractor(logger.NewNoOp()),
		Reanalyzer: reanalyzer,
		Config:     config.ScraperConfig{},
		Logger:     logger.NewNoOp(),
	})

	article, err := s.ScrapeArticle(context.Background(), "https://news.example.com/story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if article.ExtractionMethod != "http_"+extract.MethodValidationFailed {
		t.Fatalf("expected original insufficient result, got %s", article.ExtractionMethod)
	}
}
