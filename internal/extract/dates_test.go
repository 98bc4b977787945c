package extract_test

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/newscope/internal/extract"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func wantDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestExtractPublishDate_SelectorHint(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><body><span class="pub-date" datetime="2026-05-02T10:00:00Z">x</span></body></html>`)

	got := extract.ExtractPublishDate(doc, ".pub-date")
	if !got.Equal(wantDay(2026, time.May, 2)) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractPublishDate_SelectorHintTextContent(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><body><span class="dateline">January 5, 2026</span></body></html>`)

	got := extract.ExtractPublishDate(doc, ".dateline")
	if !got.Equal(wantDay(2026, time.January, 5)) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractPublishDate_JSONLD(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><head><script type="application/ld+json">
{"@context": "https://schema.org", "@type": "NewsArticle", "headline": "x", "datePublished": "2026-02-20T08:15:00Z"}
</script></head><body></body></html>`)

	got := extract.ExtractPublishDate(doc, "")
	if !got.Equal(wantDay(2026, time.February, 20)) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractPublishDate_JSONLDGraph(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><head><script type="application/ld+json">
{"@context": "https://schema.org", "@graph": [
  {"@type": "WebSite", "name": "site"},
  {"@type": "Article", "datePublished": "2025-11-30"}
]}
</script></head><body></body></html>`)

	got := extract.ExtractPublishDate(doc, "")
	if !got.Equal(wantDay(2025, time.November, 30)) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractPublishDate_OpenGraphMeta(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><head>
<meta property="article:published_time" content="2026-04-01T12:00:00+02:00">
</head><body></body></html>`)

	got := extract.ExtractPublishDate(doc, "")
	if !got.Equal(wantDay(2026, time.April, 1)) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractPublishDate_TimeElement(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><body><time datetime="2026-06-15">June 15</time></body></html>`)

	got := extract.ExtractPublishDate(doc, "")
	if !got.Equal(wantDay(2026, time.June, 15)) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractPublishDate_NothingFound(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><body><p>No dates anywhere.</p></body></html>`)

	if got := extract.ExtractPublishDate(doc, ""); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}

func TestExtractPublishDate_SelectorHintBeatsMeta(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `<html><head>
<meta property="article:published_time" content="2026-01-01T00:00:00Z">
</head><body><time class="displayed" datetime="2026-01-15T00:00:00Z">Jan 15</time></body></html>`)

	got := extract.ExtractPublishDate(doc, ".displayed")
	if !got.Equal(wantDay(2026, time.January, 15)) {
		t.Fatalf("expected selector hint to win, got %v", got)
	}
}

func TestParseDate_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-03-14T09:30:00Z", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		{"2026-03-14", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"March 14, 2026", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"14/03/2026", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := extract.ParseDate(tt.input)
		if !got.Equal(tt.want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if !extract.ParseDate("not a date").IsZero() {
		t.Fatal("expected zero time for unparseable input")
	}
}
