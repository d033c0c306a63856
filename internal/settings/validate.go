package settings

import (
	"fmt"
	"strings"
	"time"
)

// Validate applies defaults and verifies required fields.
func Validate(cfg *Settings) error {
	if cfg == nil {
		return fmt.Errorf("settings are nil")
	}
	if cfg.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if cfg.Server.Version == "" {
		return fmt.Errorf("server.version is required")
	}
	switch cfg.Server.Transport {
	case "":
		cfg.Server.Transport = "stdio"
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be stdio or http, got %q", cfg.Server.Transport)
	}
	if cfg.Server.Transport == "http" {
		if strings.TrimSpace(cfg.Server.HTTP.Listen) == "" {
			cfg.Server.HTTP.Listen = ":8080"
		}
		if cfg.Server.HTTP.Path == "" {
			cfg.Server.HTTP.Path = "/mcp"
		}
	}
	if err := checkDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"server.http.read_timeout", cfg.Server.HTTP.ReadTimeout},
		{"server.http.write_timeout", cfg.Server.HTTP.WriteTimeout},
		{"server.http.idle_timeout", cfg.Server.HTTP.IdleTimeout},
		{"http_client.timeout", cfg.HTTPClient.Timeout},
	} {
		if err := checkDuration(field.name, field.value); err != nil {
			return err
		}
	}

	if cfg.HTTPClient.UserAgent == "" {
		cfg.HTTPClient.UserAgent = fmt.Sprintf("%s/%s", cfg.Server.Name, cfg.Server.Version)
	}
	if cfg.HTTPClient.MaxResponseBytes < 0 {
		return fmt.Errorf("http_client.max_response_bytes must be >= 0")
	}
	if cfg.HTTPClient.MaxResponseBytes == 0 {
		cfg.HTTPClient.MaxResponseBytes = 10 << 20
	}
	if cfg.HTTPClient.RatePerHost < 0 {
		return fmt.Errorf("http_client.rate_per_host must be >= 0")
	}
	if cfg.HTTPClient.MaxRedirects < 0 {
		return fmt.Errorf("http_client.max_redirects must be >= 0")
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if cfg.Retry.BaseDelay == "" {
		cfg.Retry.BaseDelay = "1s"
	}
	if err := checkDuration("retry.base_delay", cfg.Retry.BaseDelay); err != nil {
		return err
	}

	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 5
	}
	if cfg.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1")
	}
	if cfg.Batch.MaxConcurrency == 0 {
		cfg.Batch.MaxConcurrency = 16
	}
	if cfg.Batch.MaxConcurrency < cfg.Batch.Concurrency {
		return fmt.Errorf("batch.max_concurrency must be >= batch.concurrency")
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.TTL == "" {
			cfg.Cache.TTL = "15m"
		}
		if err := checkDuration("cache.ttl", cfg.Cache.TTL); err != nil {
			return err
		}
		if cfg.Cache.MaxEntries < 0 {
			return fmt.Errorf("cache.max_entries must be >= 0")
		}
		if cfg.Cache.MaxEntries == 0 {
			cfg.Cache.MaxEntries = 256
		}
	}

	if cfg.Search.Endpoint == "" {
		cfg.Search.Endpoint = "https://html.duckduckgo.com/html/"
	}
	if !strings.HasPrefix(cfg.Search.Endpoint, "http://") && !strings.HasPrefix(cfg.Search.Endpoint, "https://") {
		return fmt.Errorf("search.endpoint must be an http(s) URL")
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 10
	}
	if cfg.Search.MaxResults < 1 || cfg.Search.MaxResults > 50 {
		return fmt.Errorf("search.max_results must be between 1 and 50")
	}

	if cfg.Download.Dir == "" {
		cfg.Download.Dir = "downloads"
	}
	if cfg.Download.MaxFileBytes < 0 {
		return fmt.Errorf("download.max_file_bytes must be >= 0")
	}
	if cfg.Download.MaxFileBytes == 0 {
		cfg.Download.MaxFileBytes = 100 << 20
	}

	return nil
}

func checkDuration(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	return nil
}
