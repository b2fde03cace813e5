package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/scraper"
	"github.com/wealthpath/pricewatch/internal/service"
)

// WatchlistServiceInterface for handler testing
type WatchlistServiceInterface interface {
	AddItem(ctx context.Context, userID uuid.UUID, input service.AddItemInput) (*model.WatchlistItem, error)
	ListItems(ctx context.Context, userID uuid.UUID) ([]model.WatchlistItemDetail, error)
	GetItem(ctx context.Context, userID, id uuid.UUID) (*model.WatchlistItemDetail, error)
	UpdateItem(ctx context.Context, userID, id uuid.UUID, patch map[string]any) (*model.WatchlistItem, error)
	RemoveItem(ctx context.Context, userID, id uuid.UUID) error
}

// AlertServiceInterface for handler testing
type AlertServiceInterface interface {
	ListAlerts(ctx context.Context, userID uuid.UUID, input service.ListAlertsInput) (*service.AlertPage, error)
	MarkRead(ctx context.Context, userID uuid.UUID, ids []string) (int64, error)
	Stats(ctx context.Context, userID uuid.UUID) (*model.WatchlistStats, error)
}

// PriceCheckerInterface for handler testing
type PriceCheckerInterface interface {
	RunCheck(ctx context.Context, userID *uuid.UUID) ([]service.CheckOutcome, error)
}

// HealthReporter exposes scraper health
type HealthReporter interface {
	GetHealthStatus(nextRunTime time.Time) scraper.HealthStatus
}

// NextRunFunc reports when the next scheduled check fires; zero when unscheduled.
type NextRunFunc func() time.Time

var (
	_ WatchlistServiceInterface = (*service.WatchlistService)(nil)
	_ AlertServiceInterface     = (*service.AlertService)(nil)
	_ PriceCheckerInterface     = (*service.PriceCheckService)(nil)
	_ HealthReporter            = (*scraper.MetricsCollector)(nil)
)
