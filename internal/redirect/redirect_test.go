package redirect_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/redirect"
)

func newResolver() *redirect.Resolver {
	return redirect.NewResolver(logger.NewNoOp())
}

func TestResolveHTTP_NoRedirect(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>plain page</body></html>"))
	}))
	defer server.Close()

	info := newResolver().ResolveHTTP(context.Background(), server.URL, redirect.Options{})

	if info.HasRedirects {
		t.Fatal("expected no redirects")
	}
	if info.FinalURL != server.URL {
		t.Fatalf("expected final URL %s, got %s", server.URL, info.FinalURL)
	}
	if len(info.RedirectChain) != 1 || info.RedirectChain[0] != server.URL {
		t.Fatalf("expected single-entry chain, got %v", info.RedirectChain)
	}
}

func TestResolveHTTP_FollowsChain(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusFound)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("destination"))
	})

	info := newResolver().ResolveHTTP(context.Background(), server.URL+"/a", redirect.Options{})

	if !info.HasRedirects {
		t.Fatal("expected redirects to be detected")
	}
	if info.RedirectCount != 2 {
		t.Fatalf("expected 2 redirects, got %d", info.RedirectCount)
	}
	if len(info.RedirectChain) != info.RedirectCount+1 {
		t.Fatalf("chain length %d does not match count %d + 1",
			len(info.RedirectChain), info.RedirectCount)
	}
	if info.FinalURL != server.URL+"/c" {
		t.Fatalf("expected final URL /c, got %s", info.FinalURL)
	}
}

func TestResolveHTTP_StopsAtMaxRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	// Endless chain: /hop/0 -> /hop/1 -> ...
	hop := 0
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		hop++
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", hop), http.StatusFound)
	})

	info := newResolver().ResolveHTTP(context.Background(), server.URL+"/hop/0", redirect.Options{
		MaxRedirects: 3,
	})

	if info.RedirectCount != 3 {
		t.Fatalf("expected resolution to stop at 3 redirects, got %d", info.RedirectCount)
	}
	if len(info.RedirectChain) != 4 {
		t.Fatalf("expected chain of 4 URLs, got %v", info.RedirectChain)
	}
}

func TestResolveHTTP_CycleGuard(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/second", http.StatusFound)
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/first", http.StatusFound)
	})

	info := newResolver().ResolveHTTP(context.Background(), server.URL+"/first", redirect.Options{})

	if info.RedirectCount != 1 {
		t.Fatalf("expected 1 redirect before the cycle, got %d", info.RedirectCount)
	}
	if !info.HasRedirects {
		t.Fatal("expected HasRedirects to reflect the followed hop")
	}
	if info.FinalURL != server.URL+"/second" {
		t.Fatalf("expected final URL /second, got %s", info.FinalURL)
	}
	if info.Diagnostic == "" {
		t.Fatal("expected a diagnostic for the detected cycle")
	}
}

func TestResolveHTTP_MetaRefresh(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=/landed"></head></html>`))
	})
	mux.HandleFunc("/landed", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("landed"))
	})

	info := newResolver().ResolveHTTP(context.Background(), server.URL+"/start", redirect.Options{
		FollowMetaRefresh: true,
	})

	if !info.HasRedirects {
		t.Fatal("expected meta refresh to be followed")
	}
	if info.FinalURL != server.URL+"/landed" {
		t.Fatalf("expected final URL /landed, got %s", info.FinalURL)
	}
}

func TestResolveHTTP_MetaRefreshIgnoredWhenDisabled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=https://elsewhere.example/"></head></html>`))
	}))
	defer server.Close()

	info := newResolver().ResolveHTTP(context.Background(), server.URL, redirect.Options{})

	if info.HasRedirects {
		t.Fatal("expected meta refresh to be ignored when disabled")
	}
}

func TestResolveHTTP_JavaScriptRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, _ *http.Request) {
		page := fmt.Sprintf(`<html><body><script>window.location.href = "%s/article";</script></body></html>`, server.URL)
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("article"))
	})

	info := newResolver().ResolveHTTP(context.Background(), server.URL+"/start", redirect.Options{
		FollowJavaScript: true,
	})

	if !info.HasRedirects {
		t.Fatal("expected JavaScript redirect to be followed")
	}
	if info.FinalURL != server.URL+"/article" {
		t.Fatalf("expected final URL /article, got %s", info.FinalURL)
	}
}

func TestResolveHTTP_UnreachableHostFailsOpen(t *testing.T) {
	t.Parallel()

	original := "http://127.0.0.1:1/nothing-here"
	info := newResolver().ResolveHTTP(context.Background(), original, redirect.Options{})

	if info.FinalURL != original {
		t.Fatalf("expected fail-open to original URL, got %s", info.FinalURL)
	}
	if info.HasRedirects {
		t.Fatal("expected no redirects on failure")
	}
	if info.Diagnostic == "" {
		t.Fatal("expected a diagnostic on probe failure")
	}
}

func TestDetectRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/here", http.StatusFound)
	})
	mux.HandleFunc("/here", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	resolver := newResolver()
	ctx := context.Background()

	if !resolver.DetectRedirect(ctx, server.URL+"/moved", redirect.Options{}) {
		t.Fatal("expected redirect to be detected")
	}
	if resolver.DetectRedirect(ctx, server.URL+"/here", redirect.Options{}) {
		t.Fatal("expected no redirect on final page")
	}
}
