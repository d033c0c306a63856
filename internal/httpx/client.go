// Package httpx provides the outbound HTTP client shared by the web
// tools: URL guarding, response size caps, per-host rate limiting, and
// status-carrying errors.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrResponseTooLarge is returned when a body exceeds the configured cap.
var ErrResponseTooLarge = errors.New("response exceeds size limit")

const defaultMaxRedirects = 10

// Options configure the outbound client.
type Options struct {
	// Timeout bounds a whole request, including body read.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// MaxResponseBytes caps bodies read by Get. Zero means 10 MiB.
	MaxResponseBytes int64
	// RatePerHost limits requests per second to a single host.
	// Zero disables rate limiting.
	RatePerHost float64
	// MaxRedirects caps the redirect chain. Zero means 10.
	MaxRedirects int
	// AllowPrivateHosts disables the SSRF guard (tests only).
	AllowPrivateHosts bool
}

// Response is the outcome of a completed request.
type Response struct {
	// URL is the final URL after redirects.
	URL string
	// Status is the HTTP status code.
	Status int
	// ContentType is the response Content-Type header.
	ContentType string
	// Body holds the full body for Get responses.
	Body []byte
	// Reader streams the body for Stream responses. The caller closes it.
	Reader io.ReadCloser
}

// Client performs guarded outbound requests.
type Client struct {
	httpClient *http.Client
	guard      Guard
	userAgent  string
	maxBytes   int64
	perHost    float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a Client from opts.
func New(opts Options) *Client {
	guard := Guard{AllowPrivateHosts: opts.AllowPrivateHosts}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				// Redirects can point back into private space.
				return guard.ValidateURL(req.URL.String())
			},
		},
		guard:     guard,
		userAgent: opts.UserAgent,
		maxBytes:  maxBytes,
		perHost:   opts.RatePerHost,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Get fetches url and returns the full body, capped at MaxResponseBytes.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Reader.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Reader, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%s: %w (max %d bytes)", url, ErrResponseTooLarge, c.maxBytes)
	}
	resp.Body = body
	resp.Reader = nil
	return resp, nil
}

// Stream fetches url and returns the body as a reader that fails with
// ErrResponseTooLarge once more than maxBytes have been read. A
// non-positive maxBytes falls back to the client cap. The caller must
// close the reader.
func (c *Client) Stream(ctx context.Context, url string, maxBytes int64) (*Response, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = c.maxBytes
	}
	resp.Reader = &cappedReader{inner: resp.Reader, remaining: maxBytes}
	return resp, nil
}

func (c *Client) do(ctx context.Context, url string) (*Response, error) {
	if err := c.guard.ValidateURL(url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if limiter := c.limiter(req.URL.Hostname()); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		resp.Body.Close()
		return nil, &StatusError{
			URL:     url,
			Code:    resp.StatusCode,
			Snippet: strings.TrimSpace(string(snippet)),
		}
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{
		URL:         finalURL,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Reader:      resp.Body,
	}, nil
}

func (c *Client) limiter(host string) *rate.Limiter {
	if c.perHost <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.perHost), 1)
		c.limiters[host] = limiter
	}
	return limiter
}

type cappedReader struct {
	inner     io.ReadCloser
	remaining int64
}

func (r *cappedReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		// Probe one extra byte: a body that ends exactly at the cap
		// is fine, anything more is an overflow.
		var one [1]byte
		n, err := r.inner.Read(one[:])
		if n > 0 {
			return 0, ErrResponseTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.inner.Read(p)
	r.remaining -= int64(n)
	return n, err
}

func (r *cappedReader) Close() error {
	return r.inner.Close()
}
