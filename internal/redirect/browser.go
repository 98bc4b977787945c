package redirect

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	// jsSettleDelay is how long a rendered page is given to fire JavaScript
	// redirects before the final URL is read.
	jsSettleDelay = 2 * time.Second
	// networkIdleWait bounds how long navigation waits for the page to
	// report a networkIdle lifecycle event.
	networkIdleWait = 5 * time.Second
)

// hopRecorder collects redirect hop URLs from chromedp's event goroutine.
// Record runs concurrently with Snapshot, so access is mutex-guarded.
type hopRecorder struct {
	mu   sync.Mutex
	hops []string
}

func (h *hopRecorder) Record(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hops = append(h.hops, url)
}

// Snapshot returns a copy of the hops recorded so far. Hops arriving after
// the snapshot are dropped.
func (h *hopRecorder) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.hops...)
}

// ResolveBrowser resolves redirects by navigating a headless browser page.
// A network listener records each 3xx document response as a hop before
// navigation completes, which catches redirects the static probe cannot
// see (cookie-gated hops, JavaScript-driven navigations). Navigation waits
// for the page's networkIdle lifecycle event before the final URL is read,
// so late JS redirects are observed.
//
// The same fail-open contract as ResolveHTTP applies.
func (r *Resolver) ResolveBrowser(ctx context.Context, rawURL string, opts Options) RedirectInfo {
	opts = opts.withDefaults()

	info := RedirectInfo{
		OriginalURL:   rawURL,
		FinalURL:      rawURL,
		RedirectChain: []string{rawURL},
		Method:        MethodBrowser,
	}

	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelTimeout()

	recorder := &hopRecorder{}
	idle := make(chan struct{}, 1)

	chromedp.ListenTarget(browserCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Type != network.ResourceTypeDocument {
				return
			}
			if isRedirectStatus(int(e.Response.Status)) {
				recorder.Record(e.Response.URL)
			}
		case *page.EventLifecycleEvent:
			if e.Name == "networkIdle" {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	})

	tasks := chromedp.Tasks{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(actionCtx context.Context) error {
			select {
			case <-idle:
				return nil
			case <-time.After(networkIdleWait):
				return nil
			case <-actionCtx.Done():
				return actionCtx.Err()
			}
		}),
	}
	if opts.FollowJavaScript {
		tasks = append(tasks, chromedp.Sleep(jsSettleDelay))
	}

	var finalURL string
	tasks = append(tasks, chromedp.Location(&finalURL))

	var outerHTML string
	if opts.FollowJavaScript {
		tasks = append(tasks, chromedp.OuterHTML("html", &outerHTML))
	}

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		info.Diagnostic = "browser navigation: " + err.Error()
		r.logger.Debug("Browser redirect resolution failed (fail-open)",
			"url", rawURL,
			"error", err.Error())
		return info
	}

	// The event goroutine keeps delivering until the context is cancelled,
	// so work on a snapshot; the recorder is not touched again.
	for _, hop := range recorder.Snapshot() {
		if !chainContains(info.RedirectChain, hop) {
			info.RedirectChain = append(info.RedirectChain, hop)
		}
	}

	if opts.FollowJavaScript && outerHTML != "" {
		// A rendered meta-refresh tag or JS pattern the navigation did not
		// fire yet still points at a further destination.
		if dest := r.scanBody(finalURL, outerHTML, opts); dest != "" && !chainContains(info.RedirectChain, dest) {
			info.RedirectChain = append(info.RedirectChain, dest)
			finalURL = dest
		}
	}

	if finalURL != "" && !chainContains(info.RedirectChain, finalURL) {
		info.RedirectChain = append(info.RedirectChain, finalURL)
	}

	info.FinalURL = info.RedirectChain[len(info.RedirectChain)-1]
	info.RedirectCount = len(info.RedirectChain) - 1
	info.HasRedirects = info.RedirectCount > 0

	return info
}
