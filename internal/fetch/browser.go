package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonesrussell/newscope/internal/config"
	"github.com/jonesrussell/newscope/internal/logger"
)

const (
	// htmxSettleDelay is how long HTMX-driven content is given to load.
	htmxSettleDelay = 3 * time.Second
	// scrollSettleDelay is the pause after scrolling for lazy content.
	scrollSettleDelay = 1 * time.Second
)

// ChromeFetcher fetches rendered pages through a headless Chrome instance.
// One allocator is shared across fetches; each fetch gets its own tab.
type ChromeFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	userAgent   string
	logger      logger.Interface
}

// NewChromeFetcher creates a browser fetcher with a shared allocator.
// Close must be called to shut the browser down.
func NewChromeFetcher(cfg config.FetchConfig, log logger.Interface) *ChromeFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		userAgent:   cfg.UserAgent,
		logger:      log,
	}
}

// Close shuts down the browser allocator.
func (f *ChromeFetcher) Close() {
	f.allocCancel()
}

// FetchPage navigates to url in a fresh tab and returns the rendered HTML.
func (f *ChromeFetcher) FetchPage(ctx context.Context, url string, opts BrowserOptions) (string, error) {
	tabCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultBrowserTimeout
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	// Honor the caller's cancellation as well as the tab timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()

	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}

	if opts.ScrollToLoad {
		tasks = append(tasks,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(scrollSettleDelay),
		)
	}

	if opts.HandleHTMX {
		tasks = append(tasks, chromedp.ActionFunc(func(actionCtx context.Context) error {
			var hasHTMX bool
			checkErr := chromedp.Evaluate(
				`document.querySelector('[hx-get],[hx-post],[hx-trigger]') !== null`,
				&hasHTMX,
			).Do(actionCtx)
			if checkErr != nil || !hasHTMX {
				return nil
			}
			f.logger.Debug("HTMX markers found in live DOM, waiting for content", "url", url)
			return chromedp.Sleep(htmxSettleDelay).Do(actionCtx)
		}))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return "", fmt.Errorf("browser fetch %s: %w", url, err)
	}

	return html, nil
}
