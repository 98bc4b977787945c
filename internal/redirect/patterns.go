package redirect

import "regexp"

// metaRefreshPattern matches <meta http-equiv="refresh" content="N; url=...">
// in either attribute order commonly seen in the wild.
var metaRefreshPattern = regexp.MustCompile(
	`(?is)<meta[^>]+http-equiv\s*=\s*["']?refresh["']?[^>]*content\s*=\s*["']?\s*\d+\s*;\s*url\s*=\s*([^"'>\s]+)`,
)

// jsRedirectPattern is one declarative JavaScript-redirect pattern. The same
// table drives both plain-HTML scanning and scanning of browser-rendered DOM
// so the two paths cannot drift.
type jsRedirectPattern struct {
	// name identifies the pattern in logs.
	name string
	// re captures the destination URL in group 1.
	re *regexp.Regexp
}

// jsRedirectPatterns are the JavaScript redirect idioms followed when
// FollowJavaScript is enabled. Order matters: the first match wins.
var jsRedirectPatterns = []jsRedirectPattern{
	{
		name: "window_location",
		re:   regexp.MustCompile(`window\.location(?:\.href)?\s*=\s*["']([^"']+)["']`),
	},
	{
		name: "window_location_replace",
		re:   regexp.MustCompile(`window\.location\.replace\(\s*["']([^"']+)["']\s*\)`),
	},
	{
		name: "document_location",
		re:   regexp.MustCompile(`document\.location(?:\.href)?\s*=\s*["']([^"']+)["']`),
	},
	{
		// Aggregator redirect pages often stash the destination in a
		// config object rather than assigning location directly.
		name: "url_key",
		re:   regexp.MustCompile(`url\s*:\s*["'](https?://[^"']+)["']`),
	},
}

// findMetaRefresh returns the meta-refresh destination in html, or "".
func findMetaRefresh(html string) string {
	if m := metaRefreshPattern.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

// findJSRedirect returns the first JavaScript redirect destination in html
// along with the pattern name, or empty strings when none match.
func findJSRedirect(html string) (destination, pattern string) {
	for _, p := range jsRedirectPatterns {
		if m := p.re.FindStringSubmatch(html); m != nil {
			return m[1], p.name
		}
	}
	return "", ""
}
