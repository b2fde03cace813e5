package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/wealthpath/pricewatch/internal/model"
)

//go:generate mockery --name=WatchlistRepositoryInterface --output=../mocks --outpkg=mocks
type WatchlistRepositoryInterface interface {
	Create(ctx context.Context, item *model.WatchlistItem) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*model.WatchlistItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WatchlistItemDetail, error)
	ListActive(ctx context.Context, userID *uuid.UUID) ([]model.WatchlistItem, error)
	ListHistory(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PricePoint, error)
	Update(ctx context.Context, id, userID uuid.UUID, u ItemUpdate) (*model.WatchlistItem, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ApplyCheck(ctx context.Context, res CheckResult) error
}

//go:generate mockery --name=AlertRepositoryInterface --output=../mocks --outpkg=mocks
type AlertRepositoryInterface interface {
	Create(ctx context.Context, alert *model.PriceAlert) error
	ListByUser(ctx context.Context, userID uuid.UUID, f AlertFilters) ([]model.AlertWithItem, error)
	Count(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int, error)
	ListByItem(ctx context.Context, itemID, userID uuid.UUID, limit int) ([]model.PriceAlert, error)
	CountByItem(ctx context.Context, itemID, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
}

var (
	_ WatchlistRepositoryInterface = (*WatchlistRepository)(nil)
	_ AlertRepositoryInterface     = (*AlertRepository)(nil)
)
