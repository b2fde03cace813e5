package scraper

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	applog "github.com/wealthpath/pricewatch/internal/logger"
)

const defaultMaxBodySize = 10 << 20

// ErrBodyTooLarge is returned when a decoded page exceeds the fetcher's size cap.
var ErrBodyTooLarge = errors.New("response body too large")

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// PageFetcher downloads a page and returns its HTML as UTF-8.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError describes a failed page download.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetcherConfig holds HTTP fetcher settings.
type FetcherConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgents   []string
	// MaxBodySize caps the decoded page, after decompression.
	MaxBodySize int64
}

// DefaultFetcherConfig returns a 15s timeout, a five redirect cap and a 10 MiB body cap.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      15 * time.Second,
		MaxRedirects: 5,
		UserAgents:   defaultUserAgents,
		MaxBodySize:  defaultMaxBodySize,
	}
}

// HTTPFetcher is a PageFetcher over net/http with browser-like headers.
type HTTPFetcher struct {
	client      *http.Client
	logger      *slog.Logger
	userAgents  []string
	maxBodySize int64
	uaIndex     atomic.Int64
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(cfg FetcherConfig, logger *slog.Logger) *HTTPFetcher {
	logger = applog.Component(logger, "http_fetcher")
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}

	// cookiejar.New never fails with nil options
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("max redirects (%d) reached", maxRedirects)
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:      client,
		logger:      logger,
		userAgents:  cfg.UserAgents,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Fetch downloads url. Non-2xx responses are returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err, Retryable: isRetryableNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	reader, err := decompressReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("decompress: %w", err)}
	}

	utf8Reader, err := charset.NewReader(reader, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("charset: %w", err)}
	}

	// one byte over the cap tells a full page from a truncated one
	body, err := io.ReadAll(io.LimitReader(utf8Reader, f.maxBodySize+1))
	if err != nil {
		return "", &FetchError{URL: url, Err: err, Retryable: isRetryableNetError(err)}
	}
	if int64(len(body)) > f.maxBodySize {
		return "", &FetchError{
			URL: url,
			Err: fmt.Errorf("%w: more than %d bytes after decoding", ErrBodyTooLarge, f.maxBodySize),
		}
	}

	f.logger.Debug("fetch complete",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Int("size", len(body)),
		slog.Duration("duration", time.Since(start)),
	)

	return string(body), nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}

func (f *HTTPFetcher) nextUserAgent() string {
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

func decompressReader(encoding string, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

func isRetryableNetError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) || errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}
