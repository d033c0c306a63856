// Package download implements the web_download tool: retrieve one or
// more files and store them under the configured download root.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/webscout/web-mcp-server/internal/batch"
	"github.com/webscout/web-mcp-server/internal/httpx"
	"github.com/webscout/web-mcp-server/internal/protocol"
	"github.com/webscout/web-mcp-server/internal/retry"
)

// Input is the web_download tool input.
type Input struct {
	// URLs lists the files to download.
	URLs []string `json:"urls"`
	// Dir is an optional subdirectory under the download root.
	Dir string `json:"dir,omitempty"`
	// Concurrency overrides the default batch concurrency.
	Concurrency *int `json:"concurrency,omitempty"`
	// MaxAttempts overrides the default retry attempts.
	MaxAttempts *int `json:"max_attempts,omitempty"`
	// BaseDelayMS overrides the default backoff base delay.
	BaseDelayMS *int `json:"base_delay_ms,omitempty"`
}

// File is the per-URL outcome. Either Error is set, or the file fields are.
type File struct {
	URL         string `json:"url"`
	Path        string `json:"path,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Output is the web_download tool output. Files mirrors the input URL
// order, one entry per URL.
type Output struct {
	Files   []File           `json:"files"`
	Summary protocol.Summary `json:"summary"`
}

// Tool downloads files under a root directory with a per-file size cap.
type Tool struct {
	client       *httpx.Client
	root         string
	maxFileBytes int64
}

// New creates the download tool. All downloads land under root.
func New(client *httpx.Client, root string, maxFileBytes int64) *Tool {
	return &Tool{client: client, root: root, maxFileBytes: maxFileBytes}
}

// Download processes every URL under the concurrency bound, each
// through the retry policy. One URL's failure is recorded in its slot
// and never affects the others.
func (t *Tool) Download(ctx context.Context, in Input, policy retry.Policy, concurrency int) (Output, error) {
	if len(in.URLs) == 0 {
		return Output{}, errors.New("urls are required")
	}
	dir, err := t.resolveDir(in.Dir)
	if err != nil {
		return Output{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create download dir: %w", err)
	}

	results, err := batch.Run(ctx, in.URLs, concurrency, func(ctx context.Context, fileURL string) (File, error) {
		return retry.Do(ctx, policy, func(ctx context.Context) (File, error) {
			return t.downloadOne(ctx, fileURL, dir)
		})
	})
	if err != nil {
		return Output{}, err
	}

	out := Output{Files: make([]File, 0, len(results))}
	out.Summary.Total = len(results)
	for i, res := range results {
		if res.Err != nil {
			out.Files = append(out.Files, File{URL: in.URLs[i], Error: res.Err.Error()})
			out.Summary.Failed++
			continue
		}
		out.Files = append(out.Files, res.Value)
		out.Summary.Succeeded++
	}
	return out, nil
}

// resolveDir joins the optional request dir with the root and rejects
// paths that escape it.
func (t *Tool) resolveDir(sub string) (string, error) {
	root, err := filepath.Abs(t.root)
	if err != nil {
		return "", fmt.Errorf("download root: %w", err)
	}
	if sub == "" {
		return root, nil
	}
	if filepath.IsAbs(sub) {
		return "", fmt.Errorf("dir must be relative to the download root")
	}
	dir := filepath.Join(root, sub)
	if dir != root && !isWithin(root, dir) {
		return "", fmt.Errorf("dir %q escapes the download root", sub)
	}
	return dir, nil
}

func isWithin(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}

func (t *Tool) downloadOne(ctx context.Context, fileURL, dir string) (File, error) {
	resp, err := t.client.Stream(ctx, fileURL, t.maxFileBytes)
	if err != nil {
		return File{}, err
	}
	defer resp.Reader.Close()

	path, out, err := createTarget(dir, fileName(resp.URL))
	if err != nil {
		return File{}, err
	}

	size, err := io.Copy(out, resp.Reader)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return File{}, fmt.Errorf("download %s: %w", fileURL, err)
	}

	return File{
		URL:         fileURL,
		Path:        path,
		SizeBytes:   size,
		ContentType: resp.ContentType,
	}, nil
}

// createTarget opens a fresh file for the download, suffixing the name
// when it already exists so concurrent downloads never clobber each
// other.
func createTarget(dir, name string) (string, *os.File, error) {
	path := filepath.Join(dir, name)
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return path, out, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return "", nil, fmt.Errorf("create %s: %w", path, err)
	}

	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	path = filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext))
	out, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("create %s: %w", path, err)
	}
	return path, out, nil
}
