// Package search implements the web_search tool: query an HTML search
// endpoint and scrape titles, URLs, and snippets from the result page.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/webscout/web-mcp-server/internal/httpx"
	"github.com/webscout/web-mcp-server/internal/retry"
)

// Input is the web_search tool input.
type Input struct {
	// Query is the search query.
	Query string `json:"query"`
	// MaxResults caps returned results for this call.
	MaxResults *int `json:"max_results,omitempty"`
	// MaxAttempts overrides the default retry attempts.
	MaxAttempts *int `json:"max_attempts,omitempty"`
	// BaseDelayMS overrides the default backoff base delay.
	BaseDelayMS *int `json:"base_delay_ms,omitempty"`
}

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Output is the web_search tool output.
type Output struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Tool performs web searches against an HTML search endpoint.
type Tool struct {
	client     *httpx.Client
	endpoint   string
	maxResults int
}

// New creates the search tool. endpoint is the HTML results page URL,
// maxResults the server-side cap on results per query.
func New(client *httpx.Client, endpoint string, maxResults int) *Tool {
	return &Tool{
		client:     client,
		endpoint:   endpoint,
		maxResults: maxResults,
	}
}

// Search runs the query through the retry policy and scrapes the
// result page. The search is a single network operation; failures
// surface as the call's error.
func (t *Tool) Search(ctx context.Context, in Input, policy retry.Policy) (Output, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return Output{}, errors.New("query is required")
	}
	limit := t.maxResults
	if in.MaxResults != nil {
		if *in.MaxResults < 1 {
			return Output{}, errors.New("max_results must be at least 1")
		}
		if *in.MaxResults < limit {
			limit = *in.MaxResults
		}
	}

	target, err := t.queryURL(query)
	if err != nil {
		return Output{}, err
	}

	resp, err := retry.Do(ctx, policy, func(ctx context.Context) (*httpx.Response, error) {
		return t.client.Get(ctx, target)
	})
	if err != nil {
		return Output{}, fmt.Errorf("search %q: %w", query, err)
	}

	results, err := parseResults(resp.Body, limit)
	if err != nil {
		return Output{}, fmt.Errorf("parse results for %q: %w", query, err)
	}
	return Output{Query: query, Results: results}, nil
}

func (t *Tool) queryURL(query string) (string, error) {
	parsed, err := url.Parse(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("search endpoint: %w", err)
	}
	values := parsed.Query()
	values.Set("q", query)
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
