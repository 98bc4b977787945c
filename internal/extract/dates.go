package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// dateFormats are the formats tried when parsing a date string, most
// specific first.
var dateFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"Mon, 02 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 MST",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02/01/2006",
	"01/02/2006",
}

// jsonLDArticleTypes are schema.org types whose dates are trusted.
var jsonLDArticleTypes = map[string]bool{
	"NewsArticle":      true,
	"Article":          true,
	"BlogPosting":      true,
	"ScholarlyArticle": true,
	"Report":           true,
}

// schemaOrgArticleSelectors match microdata article scopes.
var schemaOrgArticleSelectors = []string{
	`[itemtype='http://schema.org/NewsArticle']`,
	`[itemtype='http://schema.org/Article']`,
	`[itemtype='https://schema.org/NewsArticle']`,
	`[itemtype='https://schema.org/Article']`,
}

// dateMetaNames are meta tag names that commonly carry publish dates.
var dateMetaNames = []string{"date", "publishdate", "pubdate"}

// ExtractPublishDate finds the article publish date with a chain of
// strategies: the configured selector hint, JSON-LD structured data,
// schema.org microdata, the Open Graph published_time meta, common date
// meta names, and finally any <time datetime> element. The result is
// truncated to a date-only UTC timestamp; zero means no date was found.
func ExtractPublishDate(doc *goquery.Document, selectorHint string) time.Time {
	strategies := []func() time.Time{
		func() time.Time { return dateFromSelector(doc, selectorHint) },
		func() time.Time { return dateFromJSONLD(doc) },
		func() time.Time { return dateFromSchemaOrg(doc) },
		func() time.Time { return ParseDate(metaProperty(doc, "article:published_time")) },
		func() time.Time { return dateFromMetaNames(doc) },
		func() time.Time { return dateFromTimeElement(doc) },
	}

	for _, strategy := range strategies {
		if date := strategy(); !date.IsZero() {
			return toDateOnly(date)
		}
	}
	return time.Time{}
}

// ParseDate attempts to parse a date string in the known formats.
// Returns the zero time when nothing matches.
func ParseDate(dateStr string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t
		}
	}
	return time.Time{}
}

// toDateOnly truncates a timestamp to UTC midnight.
func toDateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateFromSelector tries the selector hint's datetime attribute first,
// then its text content.
func dateFromSelector(doc *goquery.Document, selector string) time.Time {
	if selector == "" {
		return time.Time{}
	}

	element := doc.Find(selector).First()
	if element.Length() == 0 {
		return time.Time{}
	}

	if datetime, ok := element.Attr("datetime"); ok {
		if date := ParseDate(datetime); !date.IsZero() {
			return date
		}
	}
	if content, ok := element.Attr("content"); ok {
		if date := ParseDate(content); !date.IsZero() {
			return date
		}
	}
	return ParseDate(element.Text())
}

// dateFromJSONLD scans JSON-LD script blocks for an article datePublished.
func dateFromJSONLD(doc *goquery.Document) time.Time {
	var found time.Time
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if date := parseJSONLDDate(s.Text()); !date.IsZero() {
			found = date
			return false
		}
		return true
	})
	return found
}

// parseJSONLDDate parses one JSON-LD block and extracts an article date.
func parseJSONLDDate(jsonText string) time.Time {
	var data any
	if err := json.Unmarshal([]byte(jsonText), &data); err != nil {
		return time.Time{}
	}

	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return time.Time{}
	}

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		// An object without @type may wrap articles in @graph.
		if _, hasType := obj["@type"].(string); !hasType {
			if graph, hasGraph := obj["@graph"].([]any); hasGraph {
				for _, graphItem := range graph {
					if graphObj, isObj := graphItem.(map[string]any); isObj {
						if date := dateFromJSONLDObject(graphObj); !date.IsZero() {
							return date
						}
					}
				}
			}
			continue
		}

		if typeVal, _ := obj["@type"].(string); jsonLDArticleTypes[typeVal] {
			if date := dateFromJSONLDObject(obj); !date.IsZero() {
				return date
			}
		}
	}
	return time.Time{}
}

// dateFromJSONLDObject reads the date keys of one JSON-LD object.
func dateFromJSONLDObject(obj map[string]any) time.Time {
	for _, key := range []string{"datePublished", "publishedDate", "date"} {
		if value, ok := obj[key].(string); ok {
			if date := ParseDate(value); !date.IsZero() {
				return date
			}
		}
	}
	return time.Time{}
}

// dateFromSchemaOrg reads datePublished from schema.org microdata scopes.
func dateFromSchemaOrg(doc *goquery.Document) time.Time {
	for _, selector := range schemaOrgArticleSelectors {
		article := doc.Find(selector).First()
		if article.Length() == 0 {
			continue
		}

		published := article.Find(`[itemprop='datePublished']`).First()
		if published.Length() == 0 {
			continue
		}

		dateStr := published.AttrOr("content", published.AttrOr("datetime", published.Text()))
		if date := ParseDate(dateStr); !date.IsZero() {
			return date
		}
	}
	return time.Time{}
}

// dateFromMetaNames tries common date meta names.
func dateFromMetaNames(doc *goquery.Document) time.Time {
	for _, name := range dateMetaNames {
		if date := ParseDate(metaName(doc, name)); !date.IsZero() {
			return date
		}
	}
	return time.Time{}
}

// dateFromTimeElement reads the first <time datetime> on the page.
func dateFromTimeElement(doc *goquery.Document) time.Time {
	datetime, ok := doc.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		return time.Time{}
	}
	return ParseDate(datetime)
}
