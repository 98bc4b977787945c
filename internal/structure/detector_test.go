package structure_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/structure"
)

const samplePageHTML = `<html><head><title>t</title></head><body>
<h1 class="headline">A Headline</h1>
<div class="story-body"><p>Body text.</p></div>
<span class="byline">By Someone</span>
</body></html>`

// stubClient plays back scripted responses to Complete calls.
type stubClient struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (c *stubClient) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	call := c.calls
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if call < len(c.responses) {
		return c.responses[call], nil
	}
	return c.responses[len(c.responses)-1], nil
}

func TestDetectStructure_ParsesAIResponse(t *testing.T) {
	t.Parallel()

	client := &stubClient{responses: []string{
		`{"titleSelector": "h1.headline", "contentSelector": ".story-body", "authorSelector": ".byline", "confidence": 0.85}`,
	}}
	d := structure.NewDetector(client, structure.NewCache(), logger.NewNoOp())

	cfg := d.DetectStructure(context.Background(), "https://news.example.com/story", samplePageHTML)

	assert.Equal(t, "h1.headline", cfg.TitleSelector)
	assert.Equal(t, ".story-body", cfg.ContentSelector)
	assert.Equal(t, ".byline", cfg.AuthorSelector)
	assert.InDelta(t, 0.85, cfg.Confidence, 0.001)
	assert.Equal(t, 1, client.calls)
}

func TestDetectStructure_StripsCodeFences(t *testing.T) {
	t.Parallel()

	client := &stubClient{responses: []string{
		"```json\n{\"titleSelector\": \"h1\", \"contentSelector\": \"article\", \"confidence\": 0.7}\n```",
	}}
	d := structure.NewDetector(client, structure.NewCache(), logger.NewNoOp())

	cfg := d.DetectStructure(context.Background(), "https://news.example.com/story", samplePageHTML)

	assert.Equal(t, "h1", cfg.TitleSelector)
	assert.InDelta(t, 0.7, cfg.Confidence, 0.001)
}

func TestDetectStructure_WarmCacheSkipsAI(t *testing.T) {
	t.Parallel()

	client := &stubClient{responses: []string{
		`{"titleSelector": "h1.headline", "contentSelector": ".story-body", "confidence": 0.9}`,
	}}
	d := structure.NewDetector(client, structure.NewCache(), logger.NewNoOp())
	ctx := context.Background()

	first := d.DetectStructure(ctx, "https://news.example.com/story-one", samplePageHTML)
	second := d.DetectStructure(ctx, "https://news.example.com/story-two", samplePageHTML)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls, "second detection on the same domain must not call the AI")
}

func TestDetectStructure_TextResponseRetriedThenFallback(t *testing.T) {
	t.Parallel()

	// Both proposals return visible text instead of selectors.
	client := &stubClient{responses: []string{
		`{"titleSelector": "h1", "contentSelector": "article", "authorSelector": "By James Thaler", "confidence": 0.8}`,
		`{"titleSelector": "h1", "contentSelector": "article", "authorSelector": "By James Thaler", "confidence": 0.8}`,
	}}
	cache := structure.NewCache()
	d := structure.NewDetector(client, cache, logger.NewNoOp())

	cfg := d.DetectStructure(context.Background(), "https://news.example.com/story", samplePageHTML)

	assert.Equal(t, 2, client.calls, "validation failure must be retried exactly once")
	assert.Equal(t, structure.FallbackAuthorSelector, cfg.AuthorSelector)
	assert.InDelta(t, structure.FallbackConfidence, cfg.Confidence, 0.001)

	_, cached := cache.Get("news.example.com")
	assert.False(t, cached, "fallback config must not be cached")
}

func TestDetectStructure_APIErrorFallsBackWithoutRetry(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: errors.New("api unavailable")}
	d := structure.NewDetector(client, structure.NewCache(), logger.NewNoOp())

	cfg := d.DetectStructure(context.Background(), "https://news.example.com/story", samplePageHTML)

	assert.Equal(t, 1, client.calls, "API failures are not retried")
	assert.Equal(t, structure.FallbackTitleSelector, cfg.TitleSelector)
	assert.Equal(t, structure.FallbackContentSelector, cfg.ContentSelector)
}

func TestDetectStructure_NilClientUsesFallback(t *testing.T) {
	t.Parallel()

	d := structure.NewDetector(nil, structure.NewCache(), logger.NewNoOp())
	cfg := d.DetectStructure(context.Background(), "https://news.example.com/story", samplePageHTML)

	assert.Equal(t, structure.FallbackConfig(), cfg)
}

func TestDetectStructure_InvalidCachedEntryEvicted(t *testing.T) {
	t.Parallel()

	cache := structure.NewCache()
	cache.Set("news.example.com", structure.SelectorConfig{
		TitleSelector:   "By James Thaler",
		ContentSelector: "article",
		Confidence:      0.8,
	})

	client := &stubClient{responses: []string{
		`{"titleSelector": "h1", "contentSelector": ".story-body", "confidence": 0.6}`,
	}}
	d := structure.NewDetector(client, cache, logger.NewNoOp())

	cfg := d.DetectStructure(context.Background(), "https://news.example.com/story", samplePageHTML)

	require.Equal(t, 1, client.calls, "poisoned cache entry must trigger a fresh detection")
	assert.Equal(t, ".story-body", cfg.ContentSelector)
}

func TestPreprocessHTML_StripsScriptsAndTruncates(t *testing.T) {
	t.Parallel()

	html := `<html><head><script>var a=1;</script></head><body><!-- note --><p>kept</p><style>.x{}</style></body></html>`
	sample := structure.PreprocessHTML(html)

	assert.Contains(t, sample, "kept")
	assert.NotContains(t, sample, "var a=1")
	assert.NotContains(t, sample, ".x{}")
	assert.NotContains(t, sample, "note")
}
