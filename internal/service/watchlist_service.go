package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthpath/pricewatch/internal/apperror"
	applog "github.com/wealthpath/pricewatch/internal/logger"
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/repository"
	"github.com/wealthpath/pricewatch/internal/scraper"
	"github.com/wealthpath/pricewatch/pkg/currency"
)

const (
	listHistoryPoints   = 30
	detailHistoryPoints = 90
	detailRecentAlerts  = 10

	defaultDropThreshold = 5
)

// ProductScraper reads a price snapshot from a product page.
type ProductScraper interface {
	Scrape(ctx context.Context, url string, platform model.Platform) (scraper.Snapshot, error)
}

// WatchlistService manages an owner's tracked products.
type WatchlistService struct {
	items         repository.WatchlistRepositoryInterface
	alerts        repository.AlertRepositoryInterface
	scraper       ProductScraper
	scrapeTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewWatchlistService(
	items repository.WatchlistRepositoryInterface,
	alerts repository.AlertRepositoryInterface,
	sc ProductScraper,
	scrapeTimeout time.Duration,
	logger *slog.Logger,
) *WatchlistService {
	logger = applog.Component(logger, "watchlist_service")
	if scrapeTimeout <= 0 {
		scrapeTimeout = defaultItemTimeout
	}
	return &WatchlistService{
		items:         items,
		alerts:        alerts,
		scraper:       sc,
		scrapeTimeout: scrapeTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

type AddItemInput struct {
	URL         string           `json:"url"`
	Name        *string          `json:"name"`
	TargetPrice *decimal.Decimal `json:"targetPrice" swaggertype:"number"`
}

// AddItem classifies the URL, tries one scrape and stores the item.
// A failed scrape still stores the item, just without prices.
func (s *WatchlistService) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*model.WatchlistItem, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, apperror.ValidationError("url", "URL is required")
	}
	if input.TargetPrice != nil && !input.TargetPrice.IsPositive() {
		return nil, apperror.ValidationError("targetPrice", "must be greater than zero")
	}

	class := scraper.Classify(url)
	snap := s.scrapeOnce(ctx, url, class.Platform)

	item := &model.WatchlistItem{
		UserID:        userID,
		URL:           url,
		Platform:      class.Platform,
		PlatformID:    class.Identifier,
		CurrentPrice:  snap.Price,
		NotifyOnDrop:  true,
		DropThreshold: decimal.NewFromInt(defaultDropThreshold),
		Currency:      string(currency.DefaultCurrency),
		Status:        model.StatusWatching,
	}

	switch {
	case input.Name != nil && strings.TrimSpace(*input.Name) != "":
		item.Name = scraper.TruncateName(*input.Name)
	case snap.Name != "":
		item.Name = snap.Name
	default:
		item.Name = model.UnknownProductName
	}
	if snap.ImageURL != "" {
		img := snap.ImageURL
		item.ImageURL = &img
	}
	if snap.Currency != "" {
		item.Currency = snap.Currency
	}
	if input.TargetPrice != nil {
		item.TargetPrice = decimal.NewNullDecimal(*input.TargetPrice)
	}
	if snap.HasPrice() {
		checked := s.now()
		item.LastChecked = &checked
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("creating watchlist item: %w", err)
	}

	s.logger.Info("Watchlist item added",
		slog.String("item_id", item.ID.String()),
		slog.String("platform", string(item.Platform)),
		slog.Bool("priced", snap.HasPrice()),
	)

	return item, nil
}

func (s *WatchlistService) scrapeOnce(ctx context.Context, url string, platform model.Platform) scraper.Snapshot {
	scrapeCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	snap, err := s.scraper.Scrape(scrapeCtx, url, platform)
	if err != nil {
		s.logger.Warn("Initial scrape failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return scraper.Snapshot{}
	}
	return snap
}

// ListItems returns the owner's items newest first with their recent price history.
func (s *WatchlistService) ListItems(ctx context.Context, userID uuid.UUID) ([]model.WatchlistItemDetail, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist for user %s: %w", userID, err)
	}

	for i := range items {
		history, err := s.items.ListHistory(ctx, items[i].ID, listHistoryPoints)
		if err != nil {
			return nil, fmt.Errorf("loading history for item %s: %w", items[i].ID, err)
		}
		items[i].PriceHistory = history
	}

	return items, nil
}

// GetItem returns one item with a longer history window and its latest alerts.
func (s *WatchlistService) GetItem(ctx context.Context, userID, id uuid.UUID) (*model.WatchlistItemDetail, error) {
	item, err := s.items.GetByID(ctx, id, userID)
	if err != nil {
		return nil, mapItemError(err)
	}

	history, err := s.items.ListHistory(ctx, id, detailHistoryPoints)
	if err != nil {
		return nil, fmt.Errorf("loading history for item %s: %w", id, err)
	}

	alerts, err := s.alerts.ListByItem(ctx, id, userID, detailRecentAlerts)
	if err != nil {
		return nil, fmt.Errorf("loading alerts for item %s: %w", id, err)
	}

	count, err := s.alerts.CountByItem(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("counting alerts for item %s: %w", id, err)
	}

	return &model.WatchlistItemDetail{
		WatchlistItem: *item,
		AlertCount:    count,
		PriceHistory:  history,
		Alerts:        alerts,
	}, nil
}

// UpdateItem applies the whitelisted keys of patch. Unknown keys are ignored.
func (s *WatchlistService) UpdateItem(ctx context.Context, userID, id uuid.UUID, patch map[string]any) (*model.WatchlistItem, error) {
	update, err := parseItemPatch(patch)
	if err != nil {
		return nil, err
	}

	item, err := s.items.Update(ctx, id, userID, update)
	if err != nil {
		return nil, mapItemError(err)
	}
	return item, nil
}

// RemoveItem deletes the item together with its history and alerts.
func (s *WatchlistService) RemoveItem(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.items.Delete(ctx, id, userID); err != nil {
		return mapItemError(err)
	}
	return nil
}

func mapItemError(err error) error {
	if errors.Is(err, repository.ErrItemNotFound) {
		return apperror.NotFound("watchlist item")
	}
	return err
}

func parseItemPatch(patch map[string]any) (repository.ItemUpdate, error) {
	var u repository.ItemUpdate

	if v, ok := patch["name"]; ok {
		name, ok := v.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return u, apperror.ValidationError("name", "must be a non-empty string")
		}
		name = scraper.TruncateName(name)
		u.Name = &name
	}

	if v, ok := patch["targetPrice"]; ok {
		target := decimal.NullDecimal{}
		if v != nil {
			d, err := toDecimal(v)
			if err != nil || !d.IsPositive() {
				return u, apperror.ValidationError("targetPrice", "must be a positive number or null")
			}
			target = decimal.NewNullDecimal(d)
		}
		u.TargetPrice = &target
	}

	if v, ok := patch["notifyOnDrop"]; ok {
		notify, ok := v.(bool)
		if !ok {
			return u, apperror.ValidationError("notifyOnDrop", "must be a boolean")
		}
		u.NotifyOnDrop = &notify
	}

	if v, ok := patch["dropThreshold"]; ok {
		d, err := toDecimal(v)
		if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return u, apperror.ValidationError("dropThreshold", "must be a number between 0 and 100")
		}
		u.DropThreshold = &d
	}

	if v, ok := patch["status"]; ok {
		str, _ := v.(string)
		status := model.WatchStatus(str)
		if !status.Valid() {
			return u, apperror.ValidationError("status", "must be one of watching, target_hit, paused, purchased")
		}
		u.Status = &status
	}

	return u, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case decimal.Decimal:
		return n, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported number type %T", v)
	}
}
