package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/webscout/web-mcp-server/internal/httpx"
	"github.com/webscout/web-mcp-server/internal/retry"
	"github.com/webscout/web-mcp-server/internal/webcache"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Concurrency Patterns</title>
<meta property="og:site_name" content="Example Engineering">
</head><body>
<nav><a href="/">home</a><a href="/about">about</a></nav>
<article>
<h1>Concurrency Patterns</h1>
<p>Bounded worker pools keep resource usage predictable even when the
input set is large. Each worker takes one unit at a time and reports
its result independently of the others.</p>
<p>Backoff with jitter avoids synchronized retry storms when many
clients observe the same transient failure together.</p>
</article>
<footer>copyright</footer>
</body></html>`

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func testClient() *httpx.Client {
	return httpx.New(httpx.Options{AllowPrivateHosts: true})
}

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, articleHTML)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchExtractsArticle(t *testing.T) {
	srv := articleServer(t)

	tool := New(testClient(), nil)
	out, err := tool.Fetch(context.Background(), Input{URLs: []string{srv.URL}}, fastPolicy(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Pages) != 1 {
		t.Fatalf("got %d pages", len(out.Pages))
	}
	page := out.Pages[0]
	if page.Error != "" {
		t.Fatalf("page error: %s", page.Error)
	}
	if page.Title != "Concurrency Patterns" {
		t.Errorf("title = %q", page.Title)
	}
	if !strings.Contains(page.Content, "Bounded worker pools") {
		t.Errorf("content missing article text: %q", page.Content)
	}
	if strings.Contains(page.Content, "copyright") {
		t.Errorf("boilerplate survived extraction: %q", page.Content)
	}
	if page.WordCount == 0 {
		t.Error("word count is zero")
	}
	if out.Summary.Total != 1 || out.Summary.Succeeded != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestFetchOrderedResultsWithFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, articleHTML)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/missing", srv.URL + "/c"}
	tool := New(testClient(), nil)
	out, err := tool.Fetch(context.Background(), Input{URLs: urls}, fastPolicy(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(out.Pages))
	}
	if out.Pages[0].Error != "" || out.Pages[2].Error != "" {
		t.Errorf("healthy pages failed: %+v", out.Pages)
	}
	if out.Pages[1].Error == "" || out.Pages[1].URL != urls[1] {
		t.Errorf("failure slot = %+v", out.Pages[1])
	}
	if out.Summary.Succeeded != 2 || out.Summary.Failed != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, articleHTML)
	}))
	defer srv.Close()

	tool := New(testClient(), nil)
	out, err := tool.Fetch(context.Background(), Input{URLs: []string{srv.URL}}, fastPolicy(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if out.Pages[0].Error != "" {
		t.Errorf("page failed: %s", out.Pages[0].Error)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, articleHTML)
	}))
	defer srv.Close()

	cache := webcache.New[Page](time.Minute, 16)
	tool := New(testClient(), cache)
	for i := 0; i < 2; i++ {
		out, err := tool.Fetch(context.Background(), Input{URLs: []string{srv.URL}}, fastPolicy(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Pages[0].Error != "" {
			t.Fatalf("page failed: %s", out.Pages[0].Error)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (second call cached)", calls.Load())
	}
}

func TestFetchNonHTMLPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"answer": 42}`)
	}))
	defer srv.Close()

	tool := New(testClient(), nil)
	out, err := tool.Fetch(context.Background(), Input{URLs: []string{srv.URL}}, fastPolicy(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Pages[0].Content != `{"answer": 42}` {
		t.Errorf("content = %q", out.Pages[0].Content)
	}
}

func TestFetchRawSkipsExtraction(t *testing.T) {
	srv := articleServer(t)

	tool := New(testClient(), nil)
	out, err := tool.Fetch(context.Background(), Input{URLs: []string{srv.URL}, Raw: true}, fastPolicy(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := out.Pages[0]
	if page.Error != "" {
		t.Fatalf("page failed: %s", page.Error)
	}
	// Raw conversion keeps navigation links readability would strip.
	if !strings.Contains(page.Content, "about") {
		t.Errorf("raw content missing nav text: %q", page.Content)
	}
}

func TestFetchRequiresURLs(t *testing.T) {
	tool := New(testClient(), nil)
	if _, err := tool.Fetch(context.Background(), Input{}, fastPolicy(), 1); err == nil {
		t.Error("empty urls accepted")
	}
}

func TestFetchManyURLsBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, articleHTML)
	}))
	defer srv.Close()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/p/%d", srv.URL, i)
	}
	tool := New(testClient(), nil)
	out, err := tool.Fetch(context.Background(), Input{URLs: urls}, fastPolicy(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", got)
	}
	if out.Summary.Succeeded != len(urls) {
		t.Errorf("summary = %+v", out.Summary)
	}
}
