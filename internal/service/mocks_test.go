package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/repository"
	"github.com/wealthpath/pricewatch/internal/scraper"
)

// MockWatchlistRepo implements repository.WatchlistRepositoryInterface for testing
type MockWatchlistRepo struct {
	mock.Mock
}

func (m *MockWatchlistRepo) Create(ctx context.Context, item *model.WatchlistItem) error {
	args := m.Called(ctx, item)
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockWatchlistRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*model.WatchlistItem, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WatchlistItemDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WatchlistItemDetail), args.Error(1)
}

func (m *MockWatchlistRepo) ListActive(ctx context.Context, userID *uuid.UUID) ([]model.WatchlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistRepo) ListHistory(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PricePoint, error) {
	args := m.Called(ctx, itemID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PricePoint), args.Error(1)
}

func (m *MockWatchlistRepo) Update(ctx context.Context, id, userID uuid.UUID, u repository.ItemUpdate) (*model.WatchlistItem, error) {
	args := m.Called(ctx, id, userID, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockWatchlistRepo) ApplyCheck(ctx context.Context, res repository.CheckResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

// MockAlertRepo implements repository.AlertRepositoryInterface for testing
type MockAlertRepo struct {
	mock.Mock
}

func (m *MockAlertRepo) Create(ctx context.Context, alert *model.PriceAlert) error {
	args := m.Called(ctx, alert)
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockAlertRepo) ListByUser(ctx context.Context, userID uuid.UUID, f repository.AlertFilters) ([]model.AlertWithItem, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AlertWithItem), args.Error(1)
}

func (m *MockAlertRepo) Count(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int, error) {
	args := m.Called(ctx, userID, unreadOnly)
	return args.Int(0), args.Error(1)
}

func (m *MockAlertRepo) ListByItem(ctx context.Context, itemID, userID uuid.UUID, limit int) ([]model.PriceAlert, error) {
	args := m.Called(ctx, itemID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceAlert), args.Error(1)
}

func (m *MockAlertRepo) CountByItem(ctx context.Context, itemID, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, itemID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockAlertRepo) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockScraper implements ProductScraper for testing
type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Scrape(ctx context.Context, url string, platform model.Platform) (scraper.Snapshot, error) {
	args := m.Called(ctx, url, platform)
	return args.Get(0).(scraper.Snapshot), args.Error(1)
}

var (
	_ repository.WatchlistRepositoryInterface = (*MockWatchlistRepo)(nil)
	_ repository.AlertRepositoryInterface     = (*MockAlertRepo)(nil)
	_ ProductScraper                          = (*MockScraper)(nil)
	_ RunRecorder                             = (*scraper.MetricsCollector)(nil)
)
