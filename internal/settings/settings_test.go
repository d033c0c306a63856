package settings

import (
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
server:
  name: web-mcp-server
  version: 0.1.0
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Transport != "stdio" {
		t.Errorf("transport = %q, want stdio", cfg.Server.Transport)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.BaseDelay != "1s" {
		t.Errorf("retry defaults = %+v", cfg.Retry)
	}
	if cfg.Batch.Concurrency != 5 || cfg.Batch.MaxConcurrency != 16 {
		t.Errorf("batch defaults = %+v", cfg.Batch)
	}
	if cfg.HTTPClient.MaxResponseBytes != 10<<20 {
		t.Errorf("max_response_bytes = %d", cfg.HTTPClient.MaxResponseBytes)
	}
	if cfg.HTTPClient.UserAgent != "web-mcp-server/0.1.0" {
		t.Errorf("user_agent = %q", cfg.HTTPClient.UserAgent)
	}
	if !strings.Contains(cfg.Search.Endpoint, "duckduckgo") {
		t.Errorf("search endpoint = %q", cfg.Search.Endpoint)
	}
	if cfg.Download.Dir != "downloads" || cfg.Download.MaxFileBytes != 100<<20 {
		t.Errorf("download defaults = %+v", cfg.Download)
	}
}

func TestLoadHTTPTransportDefaults(t *testing.T) {
	cfg, err := Load([]byte(`
server:
  name: web-mcp-server
  version: 0.1.0
  transport: http
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.HTTP.Listen != ":8080" || cfg.Server.HTTP.Path != "/mcp" {
		t.Errorf("http defaults = %+v", cfg.Server.HTTP)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "server:\n  version: 0.1.0\n"},
		{"missing version", "server:\n  name: x\n"},
		{"bad transport", minimalYAML + "  transport: grpc\n"},
		{"negative attempts", minimalYAML + "retry:\n  max_attempts: -1\n"},
		{"bad base delay", minimalYAML + "retry:\n  base_delay: soon\n"},
		{"negative concurrency", minimalYAML + "batch:\n  concurrency: -2\n"},
		{"max below default", minimalYAML + "batch:\n  concurrency: 8\n  max_concurrency: 4\n"},
		{"bad cache ttl", minimalYAML + "cache:\n  enabled: true\n  ttl: never\n"},
		{"bad search endpoint", minimalYAML + "search:\n  endpoint: gopher://x\n"},
		{"search results out of range", minimalYAML + "search:\n  max_results: 500\n"},
		{"unknown field", minimalYAML + "surprise: true\n"},
	}
	for _, tt := range tests {
		if _, err := Load([]byte(tt.yaml)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("250ms", time.Second); got != 250*time.Millisecond {
		t.Errorf("Duration(250ms) = %v", got)
	}
	if got := Duration("", time.Second); got != time.Second {
		t.Errorf("Duration(empty) = %v", got)
	}
	if got := Duration("nonsense", 2*time.Second); got != 2*time.Second {
		t.Errorf("Duration(nonsense) = %v", got)
	}
}
