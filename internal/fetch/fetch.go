// Package fetch retrieves page HTML, choosing between a fast static HTTP
// fetch and a slower headless-browser fetch. The selector escalates to the
// browser when the static result is too small or the page needs client-side
// rendering, and retries the browser path on transient disconnections.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/newscope/internal/config"
	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/validation"
)

// Method identifies which fetch strategy produced a result.
type Method string

const (
	// MethodHTTP is a plain static HTTP fetch.
	MethodHTTP Method = "http"
	// MethodBrowser is a headless-browser fetch.
	MethodBrowser Method = "browser"
)

const (
	// minStaticHTMLLength is the static-fetch size below which the page is
	// assumed to need browser rendering.
	minStaticHTMLLength = 1000
	// maxResponseBodyBytes limits the size of fetched page responses.
	maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB
)

// ErrAllMethodsFailed is returned when both fetch strategies are exhausted.
var ErrAllMethodsFailed = errors.New("all fetch methods failed")

// transientBrowserErrors are substrings of browser errors worth one retry.
var transientBrowserErrors = []string{
	"frame detached",
	"protocol error",
	"connection closed",
	"target closed",
	"browser disconnected",
}

// Result is the outcome of a fetch, tagged with the method that produced it.
type Result struct {
	// HTML is the fetched page markup.
	HTML string
	// Method is the strategy that produced the HTML.
	Method Method
	// StatusCode is the HTTP status (static fetches only).
	StatusCode int
	// FinalURL is the URL after server-side redirects.
	FinalURL string
	// ProtectionDetected reports whether the response looked like a
	// bot-protection interstitial.
	ProtectionDetected bool
}

// BrowserOptions configures a headless browser fetch.
type BrowserOptions struct {
	// Timeout bounds the whole navigation.
	Timeout time.Duration
	// IsArticlePage skips listing-oriented behavior such as scrolling.
	IsArticlePage bool
	// HandleHTMX waits for HTMX-driven content to load.
	HandleHTMX bool
	// ScrollToLoad scrolls the page to trigger lazy loading.
	ScrollToLoad bool
}

// PageFetcher fetches rendered page HTML through a browser.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string, opts BrowserOptions) (string, error)
}

// HTTPFetcher performs static HTTP fetches.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    logger.Interface
}

// NewHTTPFetcher creates a static HTTP fetcher.
func NewHTTPFetcher(cfg config.FetchConfig, log logger.Interface) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		userAgent: cfg.UserAgent,
		logger:    log,
	}
}

// Fetch retrieves url with a plain GET. Non-2xx statuses are returned as
// errors except protection statuses, which return the body with
// ProtectionDetected set so callers can decide whether to escalate.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}

	result := &Result{
		HTML:       string(body),
		Method:     MethodHTTP,
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		result.ProtectionDetected = len(validation.MatchErrorPhrases(result.HTML)) > 0
		if result.ProtectionDetected {
			return result, nil
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, fmt.Errorf("http status %d", resp.StatusCode)
	}

	return result, nil
}

// MethodSelector decides whether a static fetch suffices or a browser fetch
// is required for a given URL.
type MethodSelector struct {
	httpFetcher *HTTPFetcher
	browser     PageFetcher
	cfg         config.FetchConfig
	logger      logger.Interface
}

// NewMethodSelector creates a method selector. browser may be nil, in which
// case escalation is disabled and only the static path is used.
func NewMethodSelector(
	httpFetcher *HTTPFetcher,
	browser PageFetcher,
	cfg config.FetchConfig,
	log logger.Interface,
) *MethodSelector {
	return &MethodSelector{
		httpFetcher: httpFetcher,
		browser:     browser,
		cfg:         cfg,
		logger:      log,
	}
}

// GetContent fetches url, preferring the cheap static path and escalating
// to the browser when the result is too small, protection-gated, or (for
// listing pages) needs dynamic loading. It fails only when every strategy
// is exhausted.
func (s *MethodSelector) GetContent(ctx context.Context, url string, isArticle bool) (*Result, error) {
	httpResult, httpErr := s.httpFetcher.Fetch(ctx, url)

	if httpErr == nil && !httpResult.ProtectionDetected && len(httpResult.HTML) > minStaticHTMLLength {
		if !isArticle && DetectDynamicContentNeeds(httpResult.HTML) {
			s.logger.Debug("Static fetch needs dynamic loading, escalating",
				"url", url,
				"html_length", len(httpResult.HTML))
			if browserResult, browserErr := s.fetchBrowserOnce(ctx, url, isArticle); browserErr == nil {
				return browserResult, nil
			}
			// The static result is still usable when the browser fails.
		}
		return httpResult, nil
	}

	if httpErr != nil {
		s.logger.Debug("Static fetch failed, escalating to browser",
			"url", url,
			"error", httpErr.Error())
	} else {
		s.logger.Debug("Static fetch insufficient, escalating to browser",
			"url", url,
			"html_length", len(httpResult.HTML),
			"protection_detected", httpResult.ProtectionDetected)
	}

	browserResult, browserErr := s.fetchBrowserWithRetry(ctx, url, isArticle)
	if browserErr == nil {
		return browserResult, nil
	}

	// A thin or protection-gated static result beats nothing at all.
	if httpErr == nil && httpResult.HTML != "" {
		return httpResult, nil
	}

	return nil, fmt.Errorf("%w: url %s: %w", ErrAllMethodsFailed, url, browserErr)
}

// fetchBrowserOnce performs a single browser fetch attempt.
func (s *MethodSelector) fetchBrowserOnce(ctx context.Context, url string, isArticle bool) (*Result, error) {
	if s.browser == nil {
		return nil, errors.New("browser fetcher not configured")
	}

	html, err := s.browser.FetchPage(ctx, url, BrowserOptions{
		Timeout:       s.cfg.BrowserTimeout,
		IsArticlePage: isArticle,
		HandleHTMX:    !isArticle,
		ScrollToLoad:  !isArticle,
	})
	if err != nil {
		return nil, err
	}
	if html == "" {
		return nil, errors.New("browser returned empty page")
	}

	return &Result{
		HTML:     html,
		Method:   MethodBrowser,
		FinalURL: url,
	}, nil
}

// fetchBrowserWithRetry attempts browser fetches up to the configured
// attempt cap, retrying only on the transient disconnection whitelist with
// a fixed backoff.
func (s *MethodSelector) fetchBrowserWithRetry(ctx context.Context, url string, isArticle bool) (*Result, error) {
	attempts := s.cfg.BrowserRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := s.fetchBrowserOnce(ctx, url, isArticle)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < attempts && isTransientBrowserError(err) {
			s.logger.Warn("Transient browser error, retrying",
				"url", url,
				"attempt", attempt,
				"error", err.Error())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.BrowserRetryDelay):
			}
			continue
		}
		break
	}

	return nil, lastErr
}

// isTransientBrowserError reports whether err matches a known transient
// browser disconnection message.
func isTransientBrowserError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientBrowserErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
