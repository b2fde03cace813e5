// Package browser renders product pages in headless Chromium when plain HTTP is blocked.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	applog "github.com/wealthpath/pricewatch/internal/logger"
)

var ErrPoolClosed = errors.New("browser pool is closed")

// Pool manages stealth pages on one shared browser
type Pool struct {
	browser  *rod.Browser
	pagePool chan *rod.Page
	maxPages int
	timeout  time.Duration
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// PoolConfig holds configuration for the browser pool
type PoolConfig struct {
	MaxPages    int           // concurrent pages (default: 2)
	PageTimeout time.Duration // per navigation (default: 45s)
	Headless    bool
	BinPath     string // optional Chromium binary
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxPages:    2,
		PageTimeout: 45 * time.Second,
		Headless:    true,
	}
}

// NewPool launches Chromium and pre-creates MaxPages stealth pages.
func NewPool(cfg PoolConfig, logger *slog.Logger) (*Pool, error) {
	logger = applog.Component(logger, "browser_pool")
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultPoolConfig().MaxPages
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = DefaultPoolConfig().PageTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-setuid-sandbox")
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	pool := &Pool{
		browser:  browser,
		pagePool: make(chan *rod.Page, cfg.MaxPages),
		maxPages: cfg.MaxPages,
		timeout:  cfg.PageTimeout,
		logger:   logger,
	}

	for i := 0; i < cfg.MaxPages; i++ {
		page, err := pool.createPage()
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("creating page %d: %w", i, err)
		}
		pool.pagePool <- page
	}

	pool.logger.Info("Browser pool initialized",
		slog.Int("max_pages", cfg.MaxPages),
		slog.Bool("headless", cfg.Headless),
	)

	return pool, nil
}

func (p *Pool) createPage() (*rod.Page, error) {
	page, err := stealth.Page(p.browser)
	if err != nil {
		return nil, err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		return nil, err
	}

	return page, nil
}

// Acquire gets a page from the pool (blocks if none available)
func (p *Pool) Acquire(ctx context.Context) (*rod.Page, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case page, ok := <-p.pagePool:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a page to the pool
func (p *Pool) Release(page *rod.Page) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = page.Close()
		return
	}

	_ = page.Navigate("about:blank")
	_ = page.SetCookies(nil)

	select {
	case p.pagePool <- page:
	default:
		_ = page.Close()
	}
}

// Fetch renders url in a pooled page and returns the resulting HTML.
func (p *Pool) Fetch(ctx context.Context, url string) (string, error) {
	page, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer p.Release(page)

	helper := NewPageHelper(page.Context(ctx), p.timeout)
	if err := helper.NavigateAndWait(url); err != nil {
		return "", err
	}

	html, err := helper.GetHTML()
	if err != nil {
		return "", fmt.Errorf("reading html of %s: %w", url, err)
	}

	p.logger.Debug("rendered page", slog.String("url", url), slog.Int("size", len(html)))
	return html, nil
}

// Close shuts down the browser pool
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.pagePool)
	for page := range p.pagePool {
		_ = page.Close()
	}

	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			return fmt.Errorf("closing browser: %w", err)
		}
	}

	p.logger.Info("Browser pool closed")
	return nil
}

// PageHelper wraps a page with a navigation timeout
type PageHelper struct {
	Page    *rod.Page
	Timeout time.Duration
}

func NewPageHelper(page *rod.Page, timeout time.Duration) *PageHelper {
	return &PageHelper{
		Page:    page,
		Timeout: timeout,
	}
}

// NavigateAndWait navigates to URL and waits for the page to settle
func (h *PageHelper) NavigateAndWait(url string) error {
	page := h.Page.Timeout(h.Timeout)
	waitIdle := page.WaitRequestIdle(time.Second, nil, nil, nil)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for load: %w", err)
	}

	// prices render after XHRs settle
	waitIdle()

	return nil
}

// GetHTML returns the page HTML
func (h *PageHelper) GetHTML() (string, error) {
	return h.Page.HTML()
}
