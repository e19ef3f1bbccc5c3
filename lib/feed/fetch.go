package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cisconnect/fleetwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20 // feeds are tiny; anything past 1MiB is not a status feed

// Fetcher performs conditional GETs against feed URLs. A nil Result.Content
// means "no update this tick" (304 or non-200); only transport-level failures
// come back as errors, and the caller skips the vehicle either way.
type Fetcher struct {
	client    *http.Client
	log       *zap.Logger
	userAgent string
}

// Result carries the response validators alongside the body. On 304 and
// non-200 responses the validators may be empty; callers must not overwrite
// cached values with blanks.
type Result struct {
	StatusCode   int
	ETag         string
	LastModified string
	Content      []byte
}

// NotModified reports whether the feed content was not re-downloaded.
func (r *Result) NotModified() bool {
	return r.Content == nil
}

func NewFetcher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.HTTPTimeout(),
		},
		log:       log,
		userAgent: cfg.HTTPUserAgent,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url, etag, lastModified string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	result := &Result{
		StatusCode:   resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return result, nil
	case resp.StatusCode != http.StatusOK:
		f.log.Sugar().Debugw("Feed returned non-OK status", "url", url, "status", resp.StatusCode)
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	result.Content = body
	return result, nil
}
