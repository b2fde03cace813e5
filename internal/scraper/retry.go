package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wealthpath/pricewatch/internal/model"
)

var (
	ErrNoPriceFound = errors.New("no price found on page")
	ErrParserPanic  = errors.New("parser panicked")
)

// ScrapeError represents an error that occurred while scraping one URL
type ScrapeError struct {
	Platform  model.Platform
	URL       string
	Operation string
	Err       error
	Timestamp time.Time
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("[%s] %s %s: %v", e.Platform, e.Operation, e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

func NewScrapeError(platform model.Platform, url, operation string, err error) *ScrapeError {
	return &ScrapeError{
		Platform:  platform,
		URL:       url,
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry runs fn until it succeeds, returns a non-retryable error, or runs out of attempts.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		lastErr = err

		if logger != nil {
			logger.Warn("scrape attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.String("error", err.Error()),
			)
		}

		if attempt < cfg.MaxAttempts {
			// add jitter; Int63n panics on zero
			waitTime := delay
			if delay >= 4 {
				waitTime += time.Duration(rand.Int63n(int64(delay / 4)))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryableError reports whether err is a transient fetch failure.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable
	}

	return false
}
