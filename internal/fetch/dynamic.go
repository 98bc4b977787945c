package fetch

import (
	"regexp"
)

const (
	// substantialContentBytes is the HTML size above which a page is assumed
	// to have rendered enough server-side content that only the strongest
	// dynamic-loading signals justify a browser fetch.
	substantialContentBytes = 50 * 1024
	// veryFewLinksThreshold is the anchor count below which a listing page
	// almost certainly loads its links client-side.
	veryFewLinksThreshold = 5
	// weakSignalQuorum is how many weak signals together trigger escalation
	// on non-substantial pages.
	weakSignalQuorum = 2
)

var (
	// htmxMarkerPattern matches HTMX attributes and script includes.
	htmxMarkerPattern = regexp.MustCompile(`(?i)hx-(?:get|post|trigger|swap|target|boost)=|htmx(?:\.min)?\.js`)
	// anchorPattern counts anchor tags.
	anchorPattern = regexp.MustCompile(`(?i)<a[\s>]`)
	// spaFingerprintPattern matches single-page-app mount points.
	spaFingerprintPattern = regexp.MustCompile(`(?i)id=["'](?:root|app|react-root|__next|__nuxt)["']|ng-app|vue-app|data-reactroot`)
	// loadingMarkerPattern matches skeleton/placeholder loading markup.
	loadingMarkerPattern = regexp.MustCompile(`(?i)class=["'][^"']*(?:skeleton|shimmer|placeholder|spinner|loading)[^"']*["']`)
	// dynamicAttrPattern matches secondary dynamic-loading attributes and classes.
	dynamicAttrPattern = regexp.MustCompile(`(?i)data-(?:src|lazy|load-more|infinite)|class=["'][^"']*(?:lazy-?load|infinite-?scroll)[^"']*["']`)
	// emptyContainerPattern matches containers with no children, a sign the
	// real content arrives client-side.
	emptyContainerPattern = regexp.MustCompile(`(?i)<(?:div|main|section)[^>]*(?:id|class)=["'][^"']*(?:content|main|app|feed|list)[^"']*["'][^>]*>\s*</`)
)

// DetectDynamicContentNeeds reports whether a statically fetched page needs
// a browser render to expose its content. It combines independent signals;
// pages that already carry substantial server-side content only escalate on
// the strongest ones to avoid needless browser use.
func DetectDynamicContentNeeds(html string) bool {
	hasHTMX := htmxMarkerPattern.MatchString(html)
	linkCount := len(anchorPattern.FindAllStringIndex(html, -1))
	veryFewLinks := linkCount < veryFewLinksThreshold
	hasLoadingMarkers := loadingMarkerPattern.MatchString(html)
	hasEmptyContainer := emptyContainerPattern.MatchString(html)

	// Strong signals escalate regardless of page size.
	if hasHTMX || veryFewLinks || (hasEmptyContainer && hasLoadingMarkers) {
		return true
	}

	if len(html) > substantialContentBytes {
		return false
	}

	if spaFingerprintPattern.MatchString(html) {
		return true
	}

	weakSignals := 0
	if hasLoadingMarkers {
		weakSignals++
	}
	if hasEmptyContainer {
		weakSignals++
	}
	if dynamicAttrPattern.MatchString(html) {
		weakSignals++
	}
	return weakSignals >= weakSignalQuorum
}

// HasHTMXMarkers reports whether HTML carries HTMX attributes or scripts.
// The orchestrator uses this on browser-rendered listings to decide whether
// an HTMX content-loading pass is worth running.
func HasHTMXMarkers(html string) bool {
	return htmxMarkerPattern.MatchString(html)
}

// CountAnchors returns the number of anchor tags in html.
func CountAnchors(html string) int {
	return len(anchorPattern.FindAllStringIndex(html, -1))
}
