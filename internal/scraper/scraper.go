// Package scraper turns marketplace product URLs into price snapshots.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	applog "github.com/wealthpath/pricewatch/internal/logger"
	"github.com/wealthpath/pricewatch/internal/model"
)

// Scraper fetches a product page and dispatches it to the platform's parser.
type Scraper struct {
	fetcher  PageFetcher
	fallback PageFetcher
	registry *Registry
	logger   *slog.Logger
}

// Options configures optional Scraper collaborators.
type Options struct {
	// Fallback renders pages the HTTP fetcher was refused, typically a browser pool.
	Fallback PageFetcher
	Logger   *slog.Logger
}

func NewScraper(fetcher PageFetcher, registry *Registry, opts Options) *Scraper {
	opts.Logger = applog.Component(opts.Logger, "scraper")
	return &Scraper{
		fetcher:  fetcher,
		fallback: opts.Fallback,
		registry: registry,
		logger:   opts.Logger,
	}
}

// Scrape fetches url and parses it with the parser for platform.
//
// A fetched page without a price returns a null-price snapshot and a nil error.
// Fetch failures and parser panics return a null-price snapshot together with a
// *ScrapeError, so callers can tell "page had no price" from "page was unreachable".
func (s *Scraper) Scrape(ctx context.Context, url string, platform model.Platform) (Snapshot, error) {
	html, err := s.fetch(ctx, url, platform)
	if err != nil {
		return Snapshot{}, NewScrapeError(platform, url, "fetch", err)
	}

	snap, err := s.parse(html, platform)
	if err != nil {
		s.logger.Error("parser failed",
			slog.String("url", url),
			slog.String("platform", string(platform)),
			slog.String("error", err.Error()),
		)
		return Snapshot{}, NewScrapeError(platform, url, "parse", err)
	}

	if !snap.HasPrice() {
		s.logger.Info("no price on page",
			slog.String("url", url),
			slog.String("platform", string(platform)),
		)
		return snap, nil
	}

	return snap, nil
}

func (s *Scraper) fetch(ctx context.Context, url string, platform model.Platform) (string, error) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err == nil || s.fallback == nil || !shouldFallback(err) {
		return html, err
	}

	s.logger.Info("retrying with browser",
		slog.String("url", url),
		slog.String("platform", string(platform)),
		slog.String("error", err.Error()),
	)

	rendered, ferr := s.fallback.Fetch(ctx, url)
	if ferr != nil {
		return "", fmt.Errorf("browser fallback: %w (http: %v)", ferr, err)
	}
	return rendered, nil
}

func (s *Scraper) parse(html string, platform model.Platform) (snap Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = Snapshot{}
			err = fmt.Errorf("%w: %v", ErrParserPanic, r)
		}
	}()
	return s.registry.For(platform).Parse(html), nil
}

// shouldFallback is true for refusals a real browser may get past, such as bot walls.
func shouldFallback(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Retryable {
		return false
	}
	switch fetchErr.StatusCode {
	case http.StatusForbidden, http.StatusUnauthorized, http.StatusNotAcceptable:
		return true
	}
	return false
}
