// Package fetch implements the web_fetch tool: retrieve one or more
// pages, extract the readable article, and return it as markdown.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/webscout/web-mcp-server/internal/batch"
	"github.com/webscout/web-mcp-server/internal/httpx"
	"github.com/webscout/web-mcp-server/internal/protocol"
	"github.com/webscout/web-mcp-server/internal/retry"
	"github.com/webscout/web-mcp-server/internal/webcache"
)

// Input is the web_fetch tool input.
type Input struct {
	// URLs lists the pages to fetch.
	URLs []string `json:"urls"`
	// Concurrency overrides the default batch concurrency.
	Concurrency *int `json:"concurrency,omitempty"`
	// MaxAttempts overrides the default retry attempts.
	MaxAttempts *int `json:"max_attempts,omitempty"`
	// BaseDelayMS overrides the default backoff base delay.
	BaseDelayMS *int `json:"base_delay_ms,omitempty"`
	// Raw skips article extraction and converts the whole page.
	Raw bool `json:"raw,omitempty"`
}

// Page is the per-URL outcome. Either Error is set, or the content
// fields are.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	SiteName  string `json:"site_name,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Content   string `json:"content,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Output is the web_fetch tool output. Pages mirrors the input URL
// order, one entry per URL.
type Output struct {
	Pages   []Page           `json:"pages"`
	Summary protocol.Summary `json:"summary"`
}

// Tool fetches pages and extracts readable content.
type Tool struct {
	client *httpx.Client
	cache  *webcache.Cache[Page]
}

// New creates the fetch tool. cache may be nil to disable caching.
func New(client *httpx.Client, cache *webcache.Cache[Page]) *Tool {
	return &Tool{client: client, cache: cache}
}

// Fetch processes every URL under the concurrency bound, each through
// the retry policy. One URL's failure is recorded in its slot and
// never affects the others; the call itself only fails on invalid
// configuration.
func (t *Tool) Fetch(ctx context.Context, in Input, policy retry.Policy, concurrency int) (Output, error) {
	if len(in.URLs) == 0 {
		return Output{}, errors.New("urls are required")
	}

	results, err := batch.Run(ctx, in.URLs, concurrency, func(ctx context.Context, pageURL string) (Page, error) {
		if t.cache != nil && !in.Raw {
			if page, ok := t.cache.Get(pageURL); ok {
				return page, nil
			}
		}
		page, err := retry.Do(ctx, policy, func(ctx context.Context) (Page, error) {
			return t.fetchOne(ctx, pageURL, in.Raw)
		})
		if err != nil {
			return Page{}, err
		}
		if t.cache != nil && !in.Raw {
			t.cache.Set(pageURL, page)
		}
		return page, nil
	})
	if err != nil {
		return Output{}, err
	}

	out := Output{Pages: make([]Page, 0, len(results))}
	out.Summary.Total = len(results)
	for i, res := range results {
		if res.Err != nil {
			out.Pages = append(out.Pages, Page{URL: in.URLs[i], Error: res.Err.Error()})
			out.Summary.Failed++
			continue
		}
		out.Pages = append(out.Pages, res.Value)
		out.Summary.Succeeded++
	}
	return out, nil
}

func (t *Tool) fetchOne(ctx context.Context, pageURL string, raw bool) (Page, error) {
	resp, err := t.client.Get(ctx, pageURL)
	if err != nil {
		return Page{}, err
	}

	if !isHTML(resp.ContentType) {
		content := strings.TrimSpace(string(resp.Body))
		return Page{
			URL:       resp.URL,
			Content:   content,
			WordCount: len(strings.Fields(content)),
		}, nil
	}

	if raw {
		return rawPage(resp)
	}
	page, err := extract(resp)
	if err != nil {
		return Page{}, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	return page, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") || ct == ""
}
