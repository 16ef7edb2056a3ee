package goproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/mod/module"
)

const (
	defaultProxy      = "https://proxy.golang.org,direct"
	httpClientTimeout = 30 * time.Second
	defaultUserAgent  = "semdiff/0.1.0"
	maxZipSize        = 500 << 20
)

// ErrNotFound is returned when no proxy in the chain has the module version.
var ErrNotFound = errors.New("module version not found")

// Client downloads module zip files from the Go module proxy.
type Client struct {
	httpClient *http.Client
	userAgent  string
	proxies    []string
	logger     *slog.Logger
}

// NewClient creates a Client that reads the GOPROXY environment variable to
// determine the proxy chain. If GOPROXY is unset, it defaults to
// "https://proxy.golang.org,direct".
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpClientTimeout},
		userAgent:  defaultUserAgent,
		proxies:    parseProxyList(os.Getenv("GOPROXY")),
		logger:     logger,
	}
}

// parseProxyList splits a comma- or pipe-separated GOPROXY value.
func parseProxyList(goproxy string) []string {
	if strings.TrimSpace(goproxy) == "" {
		goproxy = defaultProxy
	}
	parts := strings.FieldsFunc(goproxy, func(r rune) bool { return r == ',' || r == '|' })
	proxies := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimRight(strings.TrimSpace(p), "/"); trimmed != "" {
			proxies = append(proxies, trimmed)
		}
	}
	return proxies
}

// DownloadZip fetches the zip archive for the given module and version from the
// proxy chain. It returns the raw zip bytes on success.
func (c *Client) DownloadZip(ctx context.Context, mod, version string) ([]byte, error) {
	escapedMod, err := module.EscapePath(mod)
	if err != nil {
		return nil, fmt.Errorf("escaping module path %q: %w", mod, err)
	}
	escapedVer, err := module.EscapeVersion(version)
	if err != nil {
		return nil, fmt.Errorf("escaping version %q: %w", version, err)
	}

	for i, proxy := range c.proxies {
		switch proxy {
		case "direct":
			c.logger.Warn("direct mode not supported, skipping", "module", mod)
			continue
		case "off":
			c.logger.Debug("proxy chain disabled", "module", mod)
			return nil, fmt.Errorf("%w: %s@%s (GOPROXY=off)", ErrNotFound, mod, version)
		}

		zipURL := fmt.Sprintf("%s/%s/@v/%s.zip", proxy, escapedMod, escapedVer)
		start := time.Now()
		data, tryNext, fetchErr := c.fetch(ctx, zipURL)
		if fetchErr == nil {
			c.logger.Info("downloaded module",
				"module", mod, "version", version,
				"size", humanize.Bytes(uint64(len(data))),
				"elapsed", time.Since(start).Round(time.Millisecond))
			return data, nil
		}

		c.logger.Debug("proxy fetch failed", "url", zipURL, "error", fetchErr)
		if tryNext && i < len(c.proxies)-1 {
			continue
		}
		return nil, fetchErr
	}

	return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, mod, version)
}

// fetch performs a single HTTP GET for the given URL.
// tryNext signals that the caller should attempt the next proxy in the chain.
func (c *Client) fetch(ctx context.Context, url string) (data []byte, tryNext bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level error; let the caller decide whether to try the next proxy.
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, true, fmt.Errorf("%w: proxy returned %d for %s", ErrNotFound, resp.StatusCode, url)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxZipSize+1))
	if err != nil {
		return nil, false, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	if len(data) > maxZipSize {
		return nil, false, fmt.Errorf("module zip from %s exceeds %s", url, humanize.Bytes(maxZipSize))
	}
	return data, false, nil
}
