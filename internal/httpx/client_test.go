package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(opts Options) *Client {
	opts.AllowPrivateHosts = true
	return New(opts)
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "webscout-test/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<html>hello</html>")
	}))
	defer srv.Close()

	client := testClient(Options{UserAgent: "webscout-test/1.0"})
	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "<html>hello</html>" {
		t.Errorf("body = %q", resp.Body)
	}
	if !strings.HasPrefix(resp.ContentType, "text/html") {
		t.Errorf("content type = %q", resp.ContentType)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d", resp.Status)
	}
}

func TestClientGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(Options{})
	_, err := client.Get(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode() != http.StatusNotFound {
		t.Errorf("code = %d, want 404", statusErr.StatusCode())
	}
	if !strings.Contains(statusErr.Error(), "gone fishing") {
		t.Errorf("snippet missing from %q", statusErr.Error())
	}
}

func TestClientGetSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 2048))
	}))
	defer srv.Close()

	client := testClient(Options{MaxResponseBytes: 1024})
	_, err := client.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("err = %v, want ErrResponseTooLarge", err)
	}
}

func TestClientGetExactlyAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 1024))
	}))
	defer srv.Close()

	client := testClient(Options{MaxResponseBytes: 1024})
	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("body length = %d", len(resp.Body))
	}
}

func TestClientStreamEnforcesCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("y", 4096))
	}))
	defer srv.Close()

	client := testClient(Options{})
	resp, err := client.Stream(context.Background(), srv.URL, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Reader.Close()

	_, err = io.ReadAll(resp.Reader)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("err = %v, want ErrResponseTooLarge", err)
	}
}

func TestClientStreamWithinCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "small payload")
	}))
	defer srv.Close()

	client := testClient(Options{})
	resp, err := client.Stream(context.Background(), srv.URL, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Reader.Close()

	data, err := io.ReadAll(resp.Reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "small payload" {
		t.Errorf("data = %q", data)
	}
}

func TestClientFollowsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, srv.URL+"/final", http.StatusFound)
			return
		}
		io.WriteString(w, "landed")
	}))
	defer srv.Close()

	client := testClient(Options{})
	resp, err := client.Get(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "landed" {
		t.Errorf("body = %q", resp.Body)
	}
	if !strings.HasSuffix(resp.URL, "/final") {
		t.Errorf("final URL = %q", resp.URL)
	}
}

func TestClientBlocksGuardedURLBeforeRequest(t *testing.T) {
	client := New(Options{})
	_, err := client.Get(context.Background(), "http://169.254.169.254/latest/meta-data")
	if err == nil {
		t.Fatal("expected guard error")
	}
}
