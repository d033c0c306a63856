// Package settings holds the YAML configuration surface of the server:
// identity and transport, outbound client limits, and the defaults for
// retry, batching, caching, search, and download behavior.
package settings

// Settings is the top-level YAML configuration.
type Settings struct {
	// Server describes the MCP server identity and transport.
	Server Server `yaml:"server"`
	// HTTPClient configures the shared outbound HTTP client.
	HTTPClient HTTPClient `yaml:"http_client"`
	// Retry holds default retry policy for tool operations.
	Retry Retry `yaml:"retry"`
	// Batch holds default and maximum batch concurrency.
	Batch Batch `yaml:"batch"`
	// Cache configures the fetch result cache.
	Cache Cache `yaml:"cache"`
	// Search configures the web_search tool.
	Search Search `yaml:"search"`
	// Download configures the web_download tool.
	Download Download `yaml:"download"`
}

// Server defines MCP server settings.
type Server struct {
	// Name is the MCP server name.
	Name string `yaml:"name"`
	// Version is the MCP server version.
	Version string `yaml:"version"`
	// Transport selects the server transport ("stdio" or "http").
	Transport string `yaml:"transport"`
	// ShutdownTimeout overrides graceful shutdown duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// HTTP configures the HTTP transport.
	HTTP HTTP `yaml:"http"`
}

// HTTP configures the HTTP transport.
type HTTP struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Path is the MCP HTTP endpoint path.
	Path string `yaml:"path"`
	// ReadTimeout limits request read time.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout limits response write time.
	WriteTimeout string `yaml:"write_timeout"`
	// IdleTimeout controls idle connections.
	IdleTimeout string `yaml:"idle_timeout"`
	// Stateless disables session tracking.
	Stateless bool `yaml:"stateless"`
}

// HTTPClient configures outbound requests made by the tools.
type HTTPClient struct {
	// Timeout bounds a single outbound request.
	Timeout string `yaml:"timeout"`
	// UserAgent is sent with every outbound request.
	UserAgent string `yaml:"user_agent"`
	// MaxResponseBytes caps fetched response bodies.
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
	// RatePerHost limits outbound requests per second per host.
	RatePerHost float64 `yaml:"rate_per_host"`
	// MaxRedirects caps redirect chains.
	MaxRedirects int `yaml:"max_redirects"`
	// AllowPrivateHosts disables the SSRF guard.
	AllowPrivateHosts bool `yaml:"allow_private_hosts"`
}

// Retry holds the default retry policy applied when a tool call does
// not override it.
type Retry struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int `yaml:"max_attempts"`
	// BaseDelay seeds exponential backoff between attempts.
	BaseDelay string `yaml:"base_delay"`
}

// Batch holds concurrency bounds for batch tools.
type Batch struct {
	// Concurrency is the default number of in-flight units.
	Concurrency int `yaml:"concurrency"`
	// MaxConcurrency caps caller-supplied concurrency.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// Cache configures caching of successful fetch extractions.
type Cache struct {
	// Enabled toggles the cache.
	Enabled bool `yaml:"enabled"`
	// TTL controls how long entries are kept.
	TTL string `yaml:"ttl"`
	// MaxEntries limits the cache size.
	MaxEntries int `yaml:"max_entries"`
}

// Search configures the web_search tool.
type Search struct {
	// Endpoint is the HTML search endpoint queried for results.
	Endpoint string `yaml:"endpoint"`
	// MaxResults caps results returned per query.
	MaxResults int `yaml:"max_results"`
}

// Download configures the web_download tool.
type Download struct {
	// Dir is the root directory downloads must stay under.
	Dir string `yaml:"dir"`
	// MaxFileBytes caps a single downloaded file.
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}
