// Package redirect resolves the true destination of aggregator and
// shortener URLs: HTTP 3xx chains, meta-refresh tags, and JavaScript
// redirects, via plain HTTP or a headless browser page.
//
// Resolution is fail-open: every entry point returns a RedirectInfo and
// never an error. On any failure the result equals the original URL with
// zero redirects, with the failure recorded in Diagnostic.
package redirect

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/newscope/internal/logger"
)

// Method values recorded on RedirectInfo.
const (
	// MethodHTTP marks a chain resolved by plain HTTP probing.
	MethodHTTP = "http"
	// MethodBrowser marks a chain resolved through a headless browser page.
	MethodBrowser = "browser"
)

// Defaults for Options.
const (
	// DefaultMaxRedirects is the maximum number of hops to follow.
	DefaultMaxRedirects = 5
	// DefaultTimeout is the per-probe timeout.
	DefaultTimeout = 15 * time.Second
	// maxProbeBodyBytes caps how much of a response body is read when
	// scanning for meta-refresh and JavaScript redirects.
	maxProbeBodyBytes = 512 * 1024
)

// Options configures redirect resolution.
type Options struct {
	// MaxRedirects is the hop limit.
	MaxRedirects int
	// Timeout is the per-probe timeout.
	Timeout time.Duration
	// FollowMetaRefresh enables scanning successful responses for meta-refresh tags.
	FollowMetaRefresh bool
	// FollowJavaScript enables scanning for JavaScript redirect patterns.
	FollowJavaScript bool
	// UserAgent overrides the probe user agent when non-empty.
	UserAgent string
}

// withDefaults returns a copy of opts with defaults applied.
func (o Options) withDefaults() Options {
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// RedirectInfo describes a resolved redirect chain.
type RedirectInfo struct {
	// OriginalURL is the URL resolution started from.
	OriginalURL string
	// FinalURL is the last URL in the chain. Equals OriginalURL on failure.
	FinalURL string
	// RedirectChain is the ordered list of URLs visited; the first element
	// is always OriginalURL and no URL appears twice.
	RedirectChain []string
	// RedirectCount is len(RedirectChain) - 1.
	RedirectCount int
	// HasRedirects reports whether any redirect was followed.
	HasRedirects bool
	// Method is MethodHTTP or MethodBrowser.
	Method string
	// Diagnostic records why resolution stopped early, for callers that
	// need to distinguish a degraded result from a clean no-redirect one.
	Diagnostic string
}

// Resolver follows redirect chains.
type Resolver struct {
	client *http.Client
	logger logger.Interface
}

// NewResolver creates a redirect resolver.
func NewResolver(log logger.Interface) *Resolver {
	return &Resolver{
		client: &http.Client{
			// Redirects are followed manually so each hop can be recorded
			// and checked against the cycle guard.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: log,
	}
}

// Resolve follows redirects for rawURL. The HTTP path is always attempted
// first because it is cheap; browser-based detection is only for callers
// that explicitly need JavaScript redirect handling on rendered pages and
// is invoked through ResolveBrowser directly.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, opts Options) RedirectInfo {
	return r.ResolveHTTP(ctx, rawURL, opts)
}

// DetectRedirect reports whether rawURL redirects anywhere.
func (r *Resolver) DetectRedirect(ctx context.Context, rawURL string, opts Options) bool {
	return r.ResolveHTTP(ctx, rawURL, opts).HasRedirects
}

// ResolveHTTP follows HTTP 3xx responses, and optionally meta-refresh tags
// and JavaScript redirect patterns, up to the hop limit.
func (r *Resolver) ResolveHTTP(ctx context.Context, rawURL string, opts Options) RedirectInfo {
	opts = opts.withDefaults()

	info := RedirectInfo{
		OriginalURL:   rawURL,
		FinalURL:      rawURL,
		RedirectChain: []string{rawURL},
		Method:        MethodHTTP,
	}

	current := rawURL
	for info.RedirectCount < opts.MaxRedirects {
		next, diagnostic := r.probe(ctx, current, opts)
		if diagnostic != "" {
			info.Diagnostic = diagnostic
			break
		}
		if next == "" {
			break
		}
		if chainContains(info.RedirectChain, next) {
			// Cycle guard: stop silently at the last unvisited URL.
			info.Diagnostic = "redirect cycle detected"
			break
		}
		info.RedirectChain = append(info.RedirectChain, next)
		info.RedirectCount++
		current = next
	}

	info.FinalURL = info.RedirectChain[len(info.RedirectChain)-1]
	info.HasRedirects = info.RedirectCount > 0

	if info.HasRedirects {
		r.logger.Debug("Resolved redirect chain",
			"original_url", info.OriginalURL,
			"final_url", info.FinalURL,
			"redirect_count", info.RedirectCount)
	}

	return info
}

// probe fetches current once and returns the next URL in the chain, "" when
// the chain ends here, or a diagnostic string on failure.
func (r *Resolver) probe(ctx context.Context, current string, opts Options) (next, diagnostic string) {
	probeCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, current, http.NoBody)
	if err != nil {
		return "", "build request: " + err.Error()
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", "probe: " + err.Error()
	}
	defer resp.Body.Close()

	if isRedirectStatus(resp.StatusCode) {
		location := resp.Header.Get("Location")
		if location == "" {
			return "", ""
		}
		resolved, resolveErr := resolveReference(current, location)
		if resolveErr != nil {
			return "", "parse Location: " + resolveErr.Error()
		}
		return resolved, ""
	}

	// Non-redirect response: optionally scan the body for client-side redirects.
	if !opts.FollowMetaRefresh && !opts.FollowJavaScript {
		return "", ""
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", ""
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
	if readErr != nil {
		return "", "read body: " + readErr.Error()
	}

	return r.scanBody(current, string(body), opts), ""
}

// scanBody looks for meta-refresh and JavaScript redirect destinations in a
// page body, in that order.
func (r *Resolver) scanBody(current, body string, opts Options) string {
	if opts.FollowMetaRefresh {
		if dest := findMetaRefresh(body); dest != "" {
			if resolved, err := resolveReference(current, dest); err == nil {
				return resolved
			}
		}
	}

	if opts.FollowJavaScript {
		if dest, pattern := findJSRedirect(body); dest != "" {
			resolved, err := resolveReference(current, dest)
			if err == nil && isAbsoluteURL(resolved) {
				r.logger.Debug("Found JavaScript redirect",
					"pattern", pattern,
					"destination", resolved)
				return resolved
			}
		}
	}

	return ""
}

// isRedirectStatus returns true for HTTP status codes that indicate a redirect.
func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// resolveReference resolves ref (possibly relative) against base.
func resolveReference(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// isAbsoluteURL reports whether raw is an absolute http(s) URL.
func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// chainContains reports whether the chain already includes candidate.
func chainContains(chain []string, candidate string) bool {
	for _, visited := range chain {
		if visited == candidate {
			return true
		}
	}
	return false
}
