// Package runtime assembles the MCP server from settings and registers
// the web tools.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/webscout/web-mcp-server/internal/audit"
	"github.com/webscout/web-mcp-server/internal/batch"
	"github.com/webscout/web-mcp-server/internal/httpx"
	"github.com/webscout/web-mcp-server/internal/protocol"
	"github.com/webscout/web-mcp-server/internal/retry"
	"github.com/webscout/web-mcp-server/internal/security"
	"github.com/webscout/web-mcp-server/internal/settings"
	"github.com/webscout/web-mcp-server/internal/tools/download"
	"github.com/webscout/web-mcp-server/internal/tools/fetch"
	"github.com/webscout/web-mcp-server/internal/tools/search"
	"github.com/webscout/web-mcp-server/internal/webcache"
)

// Builder constructs an MCP server exposing the web tools.
type Builder struct {
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records tool events.
	Audit audit.Logger
	// Settings is the validated server configuration.
	Settings *settings.Settings
	// Client is the shared outbound HTTP client.
	Client *httpx.Client
	// Cache stores successful fetch extractions; may be nil.
	Cache *webcache.Cache[fetch.Page]
}

// Build creates the MCP server with the search, fetch, and download tools.
func (b Builder) Build() (*mcp.Server, error) {
	if b.Settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	if b.Client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	cfg := b.Settings

	server := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)

	searchTool := search.New(b.Client, cfg.Search.Endpoint, cfg.Search.MaxResults)
	fetchTool := fetch.New(b.Client, b.Cache)
	downloadTool := download.New(b.Client, cfg.Download.Dir, cfg.Download.MaxFileBytes)

	openWorld := true
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: &openWorld}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "web_search",
		Title:       "Web Search",
		Description: "Search the web and return result titles, URLs, and snippets.",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in search.Input) (*mcp.CallToolResult, search.Output, error) {
		correlationID := newCorrelationID()
		b.logCall(ctx, "web_search", correlationID, in)

		policy, err := b.policy(in.MaxAttempts, in.BaseDelayMS)
		if err != nil {
			return nil, search.Output{}, b.fail(ctx, "web_search", correlationID, err)
		}
		out, err := searchTool.Search(ctx, in, policy)
		if err != nil {
			return nil, search.Output{}, b.fail(ctx, "web_search", correlationID, err)
		}
		b.ok(ctx, "web_search", correlationID, len(out.Results), 0)
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "web_fetch",
		Title:       "Web Fetch",
		Description: "Fetch one or more pages, extract the readable content, and return it as markdown. Returns one entry per URL in input order; failed URLs carry an error instead of content.",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fetch.Input) (*mcp.CallToolResult, fetch.Output, error) {
		correlationID := newCorrelationID()
		b.logCall(ctx, "web_fetch", correlationID, in)

		policy, concurrency, err := b.batchConfig(in.MaxAttempts, in.BaseDelayMS, in.Concurrency)
		if err != nil {
			return nil, fetch.Output{}, b.fail(ctx, "web_fetch", correlationID, err)
		}
		out, err := fetchTool.Fetch(ctx, in, policy, concurrency)
		if err != nil {
			return nil, fetch.Output{}, b.fail(ctx, "web_fetch", correlationID, err)
		}
		b.ok(ctx, "web_fetch", correlationID, out.Summary.Total, out.Summary.Failed)
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "web_download",
		Title:       "Web Download",
		Description: "Download one or more files to the server's download directory. Returns one entry per URL in input order; failed URLs carry an error instead of a path.",
		Annotations: &mcp.ToolAnnotations{OpenWorldHint: &openWorld},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in download.Input) (*mcp.CallToolResult, download.Output, error) {
		correlationID := newCorrelationID()
		b.logCall(ctx, "web_download", correlationID, in)

		policy, concurrency, err := b.batchConfig(in.MaxAttempts, in.BaseDelayMS, in.Concurrency)
		if err != nil {
			return nil, download.Output{}, b.fail(ctx, "web_download", correlationID, err)
		}
		out, err := downloadTool.Download(ctx, in, policy, concurrency)
		if err != nil {
			return nil, download.Output{}, b.fail(ctx, "web_download", correlationID, err)
		}
		b.ok(ctx, "web_download", correlationID, out.Summary.Total, out.Summary.Failed)
		return nil, out, nil
	})

	return server, nil
}

// policy resolves a retry policy from settings defaults and per-call
// overrides. An explicit override below the minimum is a configuration
// error raised before any attempt.
func (b Builder) policy(maxAttempts, baseDelayMS *int) (retry.Policy, error) {
	policy := retry.Policy{
		MaxAttempts: b.Settings.Retry.MaxAttempts,
		BaseDelay:   settings.Duration(b.Settings.Retry.BaseDelay, time.Second),
	}
	if maxAttempts != nil {
		if *maxAttempts < 1 {
			return retry.Policy{}, retry.ErrInvalidAttempts
		}
		policy.MaxAttempts = *maxAttempts
	}
	if baseDelayMS != nil {
		if *baseDelayMS < 0 {
			return retry.Policy{}, fmt.Errorf("base_delay_ms must be >= 0")
		}
		policy.BaseDelay = time.Duration(*baseDelayMS) * time.Millisecond
	}
	return policy, nil
}

// batchConfig resolves policy and concurrency for batch tools, clamping
// concurrency to the configured maximum.
func (b Builder) batchConfig(maxAttempts, baseDelayMS, concurrency *int) (retry.Policy, int, error) {
	policy, err := b.policy(maxAttempts, baseDelayMS)
	if err != nil {
		return retry.Policy{}, 0, err
	}
	bound := b.Settings.Batch.Concurrency
	if concurrency != nil {
		if *concurrency < 1 {
			return retry.Policy{}, 0, batch.ErrInvalidConcurrency
		}
		bound = *concurrency
	}
	if max := b.Settings.Batch.MaxConcurrency; max > 0 && bound > max {
		bound = max
	}
	return policy, bound, nil
}

func (b Builder) logCall(ctx context.Context, tool, correlationID string, input any) {
	if b.Logger != nil {
		b.Logger.Info("tool call", "tool", tool, "correlation_id", correlationID, "args", security.RedactArguments(toArgs(input)))
	}
	if b.Audit != nil {
		b.Audit.Record(ctx, audit.Event{Type: "tool_call", Tool: tool, CorrelationID: correlationID})
	}
}

func (b Builder) ok(ctx context.Context, tool, correlationID string, items, failed int) {
	if b.Logger != nil {
		b.Logger.Info("tool ok", "tool", tool, "correlation_id", correlationID, "items", items, "failed", failed)
	}
	if b.Audit != nil {
		b.Audit.Record(ctx, audit.Event{Type: "tool_ok", Tool: tool, CorrelationID: correlationID, Status: protocol.StatusSuccess, Items: items})
	}
}

func (b Builder) fail(ctx context.Context, tool, correlationID string, err error) error {
	if b.Logger != nil {
		b.Logger.Error("tool error", "tool", tool, "correlation_id", correlationID, "error", err)
	}
	if b.Audit != nil {
		b.Audit.Record(ctx, audit.Event{Type: "tool_error", Tool: tool, CorrelationID: correlationID, Status: protocol.StatusError, Reason: err.Error()})
	}
	return err
}

// toArgs flattens a typed input into a map for redacted logging.
func toArgs(input any) map[string]any {
	data, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil
	}
	return args
}

func newCorrelationID() string {
	return fmt.Sprintf("corr-%d", time.Now().UTC().UnixNano())
}
