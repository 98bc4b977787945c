package scraper

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	colly "github.com/gocolly/colly/v2"

	"github.com/jonesrussell/newscope/internal/config"
	"github.com/jonesrussell/newscope/internal/logger"
)

// minSourceLinks is the link count below which an HTMX source load is
// retried with a longer wait.
const minSourceLinks = 10

// defaultMaxLinks caps returned links when the config leaves MaxLinks unset.
const defaultMaxLinks = 50

// nonArticleSegments are URL path segments that indicate non-article pages.
var nonArticleSegments = map[string]bool{
	"login":    true,
	"signin":   true,
	"signup":   true,
	"register": true,
	"search":   true,
	"contact":  true,
	"about":    true,
	"privacy":  true,
	"terms":    true,
	"tag":      true,
	"category": true,
	"author":   true,
	"page":     true,
	"feed":     true,
	"rss":      true,
	"sitemap":  true,
	"admin":    true,
	"wp-admin": true,
	"account":  true,
	"cart":     true,
	"checkout": true,
}

// nonArticleExtensions are file extensions that indicate non-article
// resources.
var nonArticleExtensions = map[string]bool{
	".pdf":  true,
	".xml":  true,
	".json": true,
	".css":  true,
	".js":   true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".ico":  true,
	".woff": true,
	".zip":  true,
	".mp3":  true,
	".mp4":  true,
}

// LinkCollector extracts candidate article links from already-fetched
// listing HTML.
type LinkCollector struct {
	maxLinks        int
	includePatterns []string
	excludePatterns []string
	logger          logger.Interface
}

// NewLinkCollector builds a collector from the scraper config.
func NewLinkCollector(cfg config.ScraperConfig, log logger.Interface) *LinkCollector {
	maxLinks := cfg.MaxLinks
	if maxLinks <= 0 {
		maxLinks = defaultMaxLinks
	}
	if log == nil {
		log = logger.NewNoOp()
	}

	return &LinkCollector{
		maxLinks:        maxLinks,
		includePatterns: cfg.IncludePatterns,
		excludePatterns: cfg.ExcludePatterns,
		logger:          log,
	}
}

// Collect returns the article links found in html, resolved against
// sourceURL, deduplicated in document order and capped at the configured
// maximum. The HTML is replayed through the collector's transport so no
// network request is made.
func (c *LinkCollector) Collect(sourceURL, html string) ([]string, error) {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)

	collector := colly.NewCollector()
	collector.WithTransport(&replayTransport{html: html})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if len(links) >= c.maxLinks {
			return
		}

		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" || seen[link] {
			return
		}
		if !c.isArticleLink(base, link) {
			return
		}

		seen[link] = true
		links = append(links, link)
	})

	if err := collector.Visit(sourceURL); err != nil {
		return nil, err
	}
	collector.Wait()

	c.logger.Debug("Collected source links",
		"url", sourceURL,
		"links", len(links))

	return links, nil
}

// countCandidates returns how many article links html would yield, used to
// decide whether an HTMX load needs a retry.
func (c *LinkCollector) countCandidates(sourceURL, html string) int {
	links, err := c.Collect(sourceURL, html)
	if err != nil {
		return 0
	}
	return len(links)
}

// isArticleLink applies the host, segment, extension and pattern filters.
func (c *LinkCollector) isArticleLink(base *url.URL, link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(parsed.Host, base.Host) {
		return false
	}
	// The listing page itself is not an article.
	if parsed.Path == base.Path || parsed.Path == "" || parsed.Path == "/" {
		return false
	}

	if nonArticleExtensions[strings.ToLower(path.Ext(parsed.Path))] {
		return false
	}
	for _, segment := range strings.Split(strings.ToLower(parsed.Path), "/") {
		if nonArticleSegments[segment] {
			return false
		}
	}

	return c.matchesPatterns(link)
}

// matchesPatterns applies the include and exclude substring filters.
func (c *LinkCollector) matchesPatterns(link string) bool {
	lower := strings.ToLower(link)

	for _, pattern := range c.excludePatterns {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return false
		}
	}

	if len(c.includePatterns) == 0 {
		return true
	}
	for _, pattern := range c.includePatterns {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// replayTransport serves pre-fetched HTML to the collector instead of
// performing a network request.
type replayTransport struct {
	html string
}

func (t *replayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(bytes.NewReader([]byte(t.html))),
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Request:    req,
	}, nil
}
