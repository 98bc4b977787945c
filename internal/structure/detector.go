package structure

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/newscope/internal/logger"
)

const (
	// maxPromptHTMLChars is the character budget for HTML sent to the AI.
	maxPromptHTMLChars = 45000
	// truncationMarker is appended when sample HTML is cut at the budget.
	truncationMarker = "\n<!-- truncated -->"
	// detectionAttempts caps AI proposals per detection: the initial call
	// plus one retry after a validation failure.
	detectionAttempts = 2
)

// Client is the AI chat-completion collaborator. Implementations send a
// prompt and return the model's free-text response, which is expected to
// parse as JSON after code-fence stripping.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Detector discovers selector configs for domains.
type Detector struct {
	client Client
	cache  *Cache
	logger logger.Interface
}

// NewDetector creates a structure detector. client may be nil, in which
// case every detection returns the fallback config.
func NewDetector(client Client, cache *Cache, log logger.Interface) *Detector {
	if cache == nil {
		cache = NewCache()
	}
	return &Detector{
		client: client,
		cache:  cache,
		logger: log,
	}
}

// Cache returns the detector's selector cache.
func (d *Detector) Cache() *Cache {
	return d.cache
}

// DetectStructure returns a selector config for the page at url. It never
// fails: a warm valid cache entry short-circuits without an AI call, AI
// proposals are sanitized and validated with one retry, and exhaustion
// yields the generic fallback config (which is never cached).
func (d *Detector) DetectStructure(ctx context.Context, url, html string) SelectorConfig {
	domain := NormalizeDomain(url)

	if cached, ok := d.cache.Get(domain); ok {
		if cached.Valid() {
			d.logger.Debug("Using cached selector config",
				"domain", domain,
				"confidence", cached.Confidence)
			return cached
		}
		// A cached entry that no longer passes validation is poison.
		d.cache.Delete(domain)
	}

	if d.client == nil {
		d.logger.Debug("AI client not configured, using fallback selectors", "domain", domain)
		return FallbackConfig()
	}

	sample := PreprocessHTML(html)

	for attempt := 1; attempt <= detectionAttempts; attempt++ {
		cfg, err := d.propose(ctx, url, sample)
		if err != nil {
			// API/network failures are not retried; validation failures are.
			d.logger.Warn("AI structure detection failed, using fallback selectors",
				"domain", domain,
				"attempt", attempt,
				"error", err.Error())
			return FallbackConfig()
		}

		cfg = cfg.sanitized()
		if cfg.Valid() {
			d.cache.Set(domain, cfg)
			d.logger.Info("Detected page structure",
				"domain", domain,
				"title_selector", cfg.TitleSelector,
				"content_selector", cfg.ContentSelector,
				"confidence", cfg.Confidence)
			return cfg
		}

		d.logger.Warn("AI returned text instead of selectors",
			"domain", domain,
			"attempt", attempt)
		d.cache.Delete(domain)
	}

	return FallbackConfig()
}

// propose sends one detection request and parses the response.
func (d *Detector) propose(ctx context.Context, url, sample string) (SelectorConfig, error) {
	response, err := d.client.Complete(ctx, buildPrompt(url, sample))
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("ai completion: %w", err)
	}

	var cfg SelectorConfig
	if unmarshalErr := json.Unmarshal([]byte(stripCodeFences(response)), &cfg); unmarshalErr != nil {
		return SelectorConfig{}, fmt.Errorf("parse ai response: %w", unmarshalErr)
	}
	return cfg, nil
}

// buildPrompt renders the versioned detection prompt. The contract is
// {html, url} in, a single JSON object of CSS selectors out.
func buildPrompt(url, sample string) string {
	var b strings.Builder
	b.WriteString("Analyze the HTML below and identify CSS selectors for the article's title, ")
	b.WriteString("main content, author, and publish date.\n\n")
	b.WriteString("Respond with ONLY a JSON object in this exact shape:\n")
	b.WriteString(`{"titleSelector": "...", "contentSelector": "...", "authorSelector": "...", "dateSelector": "...", "confidence": 0.0}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Every value must be a CSS selector, never visible text from the page.\n")
	b.WriteString("- titleSelector and contentSelector are required; omit authorSelector or dateSelector if unsure.\n")
	b.WriteString("- confidence is your certainty between 0.0 and 1.0.\n\n")
	b.WriteString("URL: ")
	b.WriteString(url)
	b.WriteString("\n\nHTML:\n")
	b.WriteString(sample)
	return b.String()
}

// htmlCommentPattern strips HTML comments before the sample is sized.
var htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// PreprocessHTML prepares page markup for the AI call: the <body> is
// extracted when present, scripts/styles/comments are stripped, and the
// result is truncated to the prompt budget with a marker.
func PreprocessHTML(html string) string {
	sample := html

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style, noscript").Remove()
		if body := doc.Find("body"); body.Length() > 0 {
			if bodyHTML, htmlErr := body.Html(); htmlErr == nil && strings.TrimSpace(bodyHTML) != "" {
				sample = bodyHTML
			}
		}
	}

	sample = htmlCommentPattern.ReplaceAllString(sample, "")

	if len(sample) > maxPromptHTMLChars {
		sample = sample[:maxPromptHTMLChars] + truncationMarker
	}
	return sample
}

// stripCodeFences removes a markdown code fence wrapper from an AI response.
func stripCodeFences(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
