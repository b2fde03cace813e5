// Package app assembles the price watcher from configuration. Both the API
// server and the CLI build their object graph here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/wealthpath/pricewatch/internal/config"
	"github.com/wealthpath/pricewatch/internal/database"
	"github.com/wealthpath/pricewatch/internal/lock"
	"github.com/wealthpath/pricewatch/internal/repository"
	"github.com/wealthpath/pricewatch/internal/scraper"
	"github.com/wealthpath/pricewatch/internal/scraper/browser"
	"github.com/wealthpath/pricewatch/internal/service"
)

const (
	// addItemScrapeTimeout bounds the single scrape attempted when an item is added.
	addItemScrapeTimeout = 20 * time.Second
	// itemTimeoutMargin covers parsing and the database write after the last attempt.
	itemTimeoutMargin = 5 * time.Second
)

// Scraper is a configured scraper plus the resources it owns.
type Scraper struct {
	*scraper.Scraper
	fetcher *scraper.HTTPFetcher
	pool    *browser.Pool
}

// Close releases idle connections and the headless browser, if one was started.
func (s *Scraper) Close() {
	s.fetcher.Close()
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			slog.Warn("closing browser pool", slog.String("error", err.Error()))
		}
	}
}

// NewScraper builds the HTTP fetcher, the selector registry and, when enabled,
// the headless browser fallback. A browser that fails to launch is logged and
// skipped.
func NewScraper(cfg config.ScraperConfig, logger *slog.Logger) (*Scraper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	selectors, err := scraper.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return nil, fmt.Errorf("loading selectors: %w", err)
	}

	fetcherCfg := scraper.DefaultFetcherConfig()
	if cfg.RequestTimeout > 0 {
		fetcherCfg.Timeout = cfg.RequestTimeout
	}
	if cfg.MaxRedirects > 0 {
		fetcherCfg.MaxRedirects = cfg.MaxRedirects
	}
	fetcher := scraper.NewHTTPFetcher(fetcherCfg, logger)

	s := &Scraper{fetcher: fetcher}
	opts := scraper.Options{Logger: logger}

	if cfg.BrowserFallback {
		pool, err := browser.NewPool(browser.DefaultPoolConfig(), logger)
		if err != nil {
			logger.Warn("Browser fallback unavailable", slog.String("error", err.Error()))
		} else {
			s.pool = pool
			opts.Fallback = pool
		}
	}

	s.Scraper = scraper.NewScraper(fetcher, scraper.NewRegistry(selectors), opts)
	return s, nil
}

// App holds the database-backed services.
type App struct {
	DB         *sqlx.DB
	Scraper    *Scraper
	Watchlist  *service.WatchlistService
	Alerts     *service.AlertService
	PriceCheck *service.PriceCheckService
	Metrics    *scraper.MetricsCollector
	Locker     lock.Locker

	redis *redis.Client
}

// New connects to Postgres (and Redis when configured), applies migrations when
// AutoMigrate is set and wires the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		applied, err := database.Migrate(ctx, db, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		logger.Info("Database schema up to date", slog.Int("applied", applied))
	}

	sc, err := NewScraper(cfg.Scraper, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{DB: db, Scraper: sc, Metrics: scraper.NewMetricsCollector()}

	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.redis = client
		a.Locker = lock.NewRedisLocker(client)
	} else {
		a.Locker = lock.NewMemoryLocker()
	}

	itemRepo := repository.NewWatchlistRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	a.Watchlist = service.NewWatchlistService(itemRepo, alertRepo, sc, addItemScrapeTimeout, logger)
	a.Alerts = service.NewAlertService(alertRepo, itemRepo)
	retry := retryConfig(cfg.Scraper.RetryAttempts)
	a.PriceCheck = service.NewPriceCheckService(itemRepo, sc, a.Metrics, service.PriceCheckConfig{
		ItemTimeout: itemTimeout(cfg.Scraper.RequestTimeout, retry),
		Retry:       retry,
	}, logger)

	return a, nil
}

// Close releases every resource New acquired.
func (a *App) Close() {
	if a.Scraper != nil {
		a.Scraper.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func retryConfig(attempts int) scraper.RetryConfig {
	cfg := scraper.DefaultRetryConfig()
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	return cfg
}

// itemTimeout leaves room for every fetch attempt to run to the request timeout,
// plus the longest backoff between attempts.
func itemTimeout(requestTimeout time.Duration, retry scraper.RetryConfig) time.Duration {
	if requestTimeout <= 0 {
		requestTimeout = scraper.DefaultFetcherConfig().Timeout
	}

	total := time.Duration(retry.MaxAttempts) * requestTimeout
	delay := retry.InitialDelay
	for attempt := 1; attempt < retry.MaxAttempts; attempt++ {
		total += delay + delay/4
		delay = time.Duration(float64(delay) * retry.Multiplier)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}

	return total + itemTimeoutMargin
}
