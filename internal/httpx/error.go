package httpx

import "fmt"

// StatusError reports a non-2xx response from a remote server. It
// carries the status code so retry classification can distinguish
// client errors from transient server failures.
type StatusError struct {
	// URL is the requested URL.
	URL string
	// Code is the HTTP status code.
	Code int
	// Snippet is the beginning of the response body, if any.
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.URL, e.Code, e.Snippet)
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int {
	return e.Code
}
