package internal

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Fetcher downloads videos from direct URLs into the downloads directory
type Fetcher struct {
	httpClient   *http.Client
	downloadsDir string
	verbose      bool
	ui           UIManager
}

// NewFetcher creates a Fetcher storing files in downloadsDir
func NewFetcher(downloadsDir string, verbose bool, ui UIManager) *Fetcher {
	// No client timeout; large downloads are bounded by the request context
	return &Fetcher{
		httpClient:   &http.Client{},
		downloadsDir: downloadsDir,
		verbose:      verbose,
		ui:           ui,
	}
}

// Fetch downloads rawURL and returns the local file path. An existing file
// with the same name is reused instead of downloading again.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := EnsureDirs(f.downloadsDir); err != nil {
		return "", fmt.Errorf("creating downloads directory: %w", err)
	}

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		return f.httpClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %s", rawURL, resp.Status)
	}

	name := filenameFromResponse(rawURL, resp)
	target := filepath.Join(f.downloadsDir, name)
	if FileExists(target) {
		if f.verbose {
			fmt.Printf("Using existing download: %s\n", target)
		}
		return target, nil
	}

	if err := f.saveBody(resp, target, name); err != nil {
		return "", err
	}

	if f.verbose {
		fmt.Printf("Downloaded %s to %s\n", rawURL, target)
	}
	return target, nil
}

// saveBody streams the response body to target via a .part file so aborted
// downloads never leave a truncated video behind
func (f *Fetcher) saveBody(resp *http.Response, target, name string) error {
	partial := target + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}

	bar := f.ui.NewByteProgressBar(resp.ContentLength, "Downloading "+name)
	_, copyErr := io.Copy(io.MultiWriter(out, &progressWriter{bar: bar}), resp.Body)
	bar.Finish()
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(partial)
		return fmt.Errorf("saving download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(partial)
		return fmt.Errorf("saving download: %w", closeErr)
	}

	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return fmt.Errorf("finalizing download: %w", err)
	}
	return nil
}

// filenameFromResponse picks a filename from the Content-Disposition header
// if present, otherwise from the URL path, defaulting the extension to .mp4
func filenameFromResponse(rawURL string, resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := params["filename"]; fn != "" {
				return SanitizeFilename(fn)
			}
		}
	}

	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "/" || base == "." {
		base = "video"
	}
	if filepath.Ext(base) == "" {
		base += ".mp4"
	}
	return SanitizeFilename(base)
}

// progressWriter advances a progress bar as bytes flow through it
type progressWriter struct {
	bar ProgressBar
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.bar.Add(len(p))
	return len(p), nil
}
