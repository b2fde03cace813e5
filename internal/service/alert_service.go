package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthpath/pricewatch/internal/apperror"
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/repository"
)

const (
	DefaultAlertLimit = 20
	MaxAlertLimit     = 100
)

// AlertService lists alerts and aggregates the watchlist summary.
type AlertService struct {
	alerts repository.AlertRepositoryInterface
	items  repository.WatchlistRepositoryInterface
}

func NewAlertService(alerts repository.AlertRepositoryInterface, items repository.WatchlistRepositoryInterface) *AlertService {
	return &AlertService{alerts: alerts, items: items}
}

type ListAlertsInput struct {
	UnreadOnly bool
	Limit      int
	Page       int
}

type AlertPage struct {
	Alerts []model.AlertWithItem `json:"alerts"`
	Total  int                   `json:"total"`
	Unread int                   `json:"unread"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
}

// ListAlerts returns one page of alerts, newest first. Limit defaults to 20 and is
// capped at 100; pages start at 1. Total honours UnreadOnly, Unread never does.
func (s *AlertService) ListAlerts(ctx context.Context, userID uuid.UUID, input ListAlertsInput) (*AlertPage, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	if limit > MaxAlertLimit {
		limit = MaxAlertLimit
	}
	page := input.Page
	if page < 1 {
		page = 1
	}

	alerts, err := s.alerts.ListByUser(ctx, userID, repository.AlertFilters{
		UnreadOnly: input.UnreadOnly,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}

	total, err := s.alerts.Count(ctx, userID, input.UnreadOnly)
	if err != nil {
		return nil, fmt.Errorf("counting alerts: %w", err)
	}

	unread, err := s.alerts.Count(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("counting unread alerts: %w", err)
	}

	return &AlertPage{
		Alerts: alerts,
		Total:  total,
		Unread: unread,
		Page:   page,
		Limit:  limit,
	}, nil
}

// MarkRead flags the caller's alerts as read. Ids that do not parse are skipped.
func (s *AlertService) MarkRead(ctx context.Context, userID uuid.UUID, ids []string) (int64, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, id)
	}

	updated, err := s.alerts.MarkRead(ctx, userID, parsed)
	if err != nil {
		return 0, fmt.Errorf("marking alerts read: %w", err)
	}
	return updated, nil
}

type CreateAlertInput struct {
	Type           model.AlertType
	PreviousPrice  decimal.Decimal
	NewPrice       decimal.Decimal
	DropPercentage decimal.Decimal
}

// CreateAlert appends an alert for one of the owner's items.
func (s *AlertService) CreateAlert(ctx context.Context, userID, itemID uuid.UUID, input CreateAlertInput) (*model.PriceAlert, error) {
	if input.Type != model.AlertTypePriceDrop && input.Type != model.AlertTypeTargetHit {
		return nil, apperror.ValidationError("type", "must be price_drop or target_hit")
	}

	item, err := s.items.GetByID(ctx, itemID, userID)
	if err != nil {
		return nil, mapItemError(err)
	}

	alert := &model.PriceAlert{
		UserID:         userID,
		ItemID:         itemID,
		Type:           input.Type,
		ProductName:    item.Name,
		PreviousPrice:  input.PreviousPrice,
		NewPrice:       input.NewPrice,
		DropPercentage: input.DropPercentage.Round(1),
		URL:            item.URL,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("creating alert: %w", err)
	}
	return alert, nil
}

// Stats summarises the owner's watchlist. TotalSaved sums original minus current
// over items that got cheaper, rounded to a whole unit.
func (s *AlertService) Stats(ctx context.Context, userID uuid.UUID) (*model.WatchlistStats, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing items for stats: %w", err)
	}

	unread, err := s.alerts.Count(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("counting unread alerts: %w", err)
	}

	stats := &model.WatchlistStats{
		TotalTracking: len(items),
		TotalSaved:    decimal.Zero,
		UnreadAlerts:  unread,
	}
	for _, item := range items {
		switch item.Status {
		case model.StatusTargetHit:
			stats.TargetHits++
		case model.StatusWatching:
			stats.ActiveWatches++
		}
		if item.OriginalPrice.Valid && item.CurrentPrice.Valid &&
			item.CurrentPrice.Decimal.LessThan(item.OriginalPrice.Decimal) {
			stats.TotalSaved = stats.TotalSaved.Add(item.OriginalPrice.Decimal.Sub(item.CurrentPrice.Decimal))
		}
	}
	stats.TotalSaved = stats.TotalSaved.Round(0)

	return stats, nil
}
