package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	applog "github.com/wealthpath/pricewatch/internal/logger"
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/repository"
	"github.com/wealthpath/pricewatch/internal/scraper"
)

const defaultItemTimeout = 20 * time.Second

type CheckStatus string

const (
	CheckUpdated CheckStatus = "updated"
	CheckNoPrice CheckStatus = "no_price"
	CheckError   CheckStatus = "error"
	// CheckSkipped means the owner or another run changed the item while it was being checked.
	CheckSkipped CheckStatus = "skipped"
)

// CheckOutcome is the per-item result of a price-check run.
type CheckOutcome struct {
	ItemID uuid.UUID         `json:"itemId"`
	Name   string            `json:"name"`
	Status CheckStatus       `json:"status"`
	Price  *decimal.Decimal  `json:"price,omitempty" swaggertype:"number"`
	Alert  *model.PriceAlert `json:"alert,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// RunRecorder collects per-platform scrape results for one run at a time.
type RunRecorder interface {
	RecordSuccess(platform model.Platform, duration time.Duration)
	RecordFailure(platform model.Platform, duration time.Duration, err error)
	FinishRun()
	GetSummary() scraper.MetricsSummary
}

type PriceCheckConfig struct {
	// ItemTimeout bounds one item's fetch, retries included.
	ItemTimeout time.Duration
	Retry       scraper.RetryConfig
}

// PriceCheckService re-scrapes watched items and raises drop and target alerts.
type PriceCheckService struct {
	items    repository.WatchlistRepositoryInterface
	scraper  ProductScraper
	recorder RunRecorder
	cfg      PriceCheckConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewPriceCheckService(
	items repository.WatchlistRepositoryInterface,
	sc ProductScraper,
	recorder RunRecorder,
	cfg PriceCheckConfig,
	logger *slog.Logger,
) *PriceCheckService {
	logger = applog.Component(logger, "price_check")
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = defaultItemTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = scraper.DefaultRetryConfig()
	}
	return &PriceCheckService{
		items:    items,
		scraper:  sc,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// RunCheck checks every watching item, of one owner or of everyone when userID is nil,
// oldest first and one at a time. Each item is persisted as soon as it is checked, so a
// cancelled run returns the outcomes gathered so far together with the context error.
// Only runs over every owner feed the scrape metrics.
func (s *PriceCheckService) RunCheck(ctx context.Context, userID *uuid.UUID) ([]CheckOutcome, error) {
	items, err := s.items.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	var recorder RunRecorder
	if userID == nil && s.recorder != nil {
		recorder = s.recorder
		defer s.finishRun()
	}

	start := s.now()
	outcomes := make([]CheckOutcome, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Price check cancelled",
				slog.Int("completed", len(outcomes)),
				slog.Int("total", len(items)),
			)
			return outcomes, err
		}

		outcome := s.checkItem(ctx, item, recorder)
		if outcome.Status == CheckError && ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
		outcomes = append(outcomes, outcome)
	}

	var updated, noPrice, failed, skipped, alerts int
	for _, o := range outcomes {
		switch o.Status {
		case CheckUpdated:
			updated++
		case CheckNoPrice:
			noPrice++
		case CheckError:
			failed++
		case CheckSkipped:
			skipped++
		}
		if o.Alert != nil {
			alerts++
		}
	}

	s.logger.Info("Price check completed",
		slog.Int("items", len(items)),
		slog.Int("updated", updated),
		slog.Int("no_price", noPrice),
		slog.Int("errors", failed),
		slog.Int("skipped", skipped),
		slog.Int("alerts", alerts),
		slog.Duration("duration", s.now().Sub(start)),
	)

	return outcomes, nil
}

func (s *PriceCheckService) finishRun() {
	s.recorder.FinishRun()
	summary := s.recorder.GetSummary()
	s.logger.Info("Scrape metrics window closed",
		slog.Int("total_runs", summary.TotalRuns),
		slog.Int("run_successes", summary.LastRunSuccesses),
		slog.Int("run_failures", summary.LastRunFailures),
		slog.Duration("scrape_time", summary.LastRunDuration),
	)
}

func (s *PriceCheckService) checkItem(ctx context.Context, item model.WatchlistItem, recorder RunRecorder) CheckOutcome {
	outcome := CheckOutcome{ItemID: item.ID, Name: item.Name}
	logger := s.logger.With(
		slog.String("item_id", item.ID.String()),
		slog.String("platform", string(item.Platform)),
	)

	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
	defer cancel()

	start := s.now()
	var snap scraper.Snapshot
	err := scraper.WithRetry(itemCtx, s.cfg.Retry, logger, func() error {
		var scrapeErr error
		snap, scrapeErr = s.scraper.Scrape(itemCtx, item.URL, item.Platform)
		return scrapeErr
	})
	elapsed := s.now().Sub(start)
	if err != nil {
		if recorder != nil {
			recorder.RecordFailure(item.Platform, elapsed, err)
		}
		outcome.Status = CheckError
		outcome.Error = err.Error()
		logger.Warn("Price check failed", slog.String("error", err.Error()))
		return outcome
	}

	if !snap.HasPrice() {
		if recorder != nil {
			recorder.RecordFailure(item.Platform, elapsed, scraper.ErrNoPriceFound)
		}
		outcome.Status = CheckNoPrice
		logger.Info("No price found")
		return outcome
	}
	if recorder != nil {
		recorder.RecordSuccess(item.Platform, elapsed)
	}

	result := evaluateCheck(item, snap, s.now())
	if err := s.items.ApplyCheck(ctx, result); err != nil {
		if errors.Is(err, repository.ErrStaleCheck) {
			outcome.Status = CheckSkipped
			outcome.Error = "item changed during check"
			logger.Info("Item changed during check, result discarded")
			return outcome
		}
		outcome.Status = CheckError
		outcome.Error = "failed to save price update"
		if errors.Is(err, repository.ErrItemNotFound) {
			outcome.Error = "item no longer exists"
		}
		logger.Error("Saving price check failed", slog.String("error", err.Error()))
		return outcome
	}

	price := result.NewPrice
	outcome.Status = CheckUpdated
	outcome.Name = result.Name
	outcome.Price = &price
	outcome.Alert = result.Alert

	attrs := []any{slog.String("price", price.String())}
	if result.Alert != nil {
		attrs = append(attrs, slog.String("alert", string(result.Alert.Type)))
	}
	logger.Info("Price updated", attrs...)

	return outcome
}

// evaluateCheck applies a fresh snapshot to an item. A target hit takes precedence
// over a plain drop alert, and no alert is possible without a previous price.
func evaluateCheck(item model.WatchlistItem, snap scraper.Snapshot, now time.Time) repository.CheckResult {
	newPrice := snap.Price.Decimal

	res := repository.CheckResult{
		ItemID:       item.ID,
		UserID:       item.UserID,
		Baseline:     item.CurrentPrice,
		NewPrice:     newPrice,
		LowestPrice:  newPrice,
		HighestPrice: newPrice,
		Name:         item.Name,
		ImageURL:     item.ImageURL,
		Status:       item.Status,
		CheckedAt:    now,
	}

	if item.LowestPrice.Valid && item.LowestPrice.Decimal.LessThan(newPrice) {
		res.LowestPrice = item.LowestPrice.Decimal
	}
	if item.HighestPrice.Valid && item.HighestPrice.Decimal.GreaterThan(newPrice) {
		res.HighestPrice = item.HighestPrice.Decimal
	}

	if item.Name == model.UnknownProductName && snap.Name != "" {
		res.Name = snap.Name
	}
	if (item.ImageURL == nil || *item.ImageURL == "") && snap.ImageURL != "" {
		img := snap.ImageURL
		res.ImageURL = &img
	}

	if !item.CurrentPrice.Valid {
		return res
	}
	previous := item.CurrentPrice.Decimal
	if !previous.IsPositive() || !newPrice.LessThan(previous) {
		return res
	}

	dropPct := previous.Sub(newPrice).Div(previous).Mul(decimal.NewFromInt(100)).Round(1)

	var alertType model.AlertType
	switch {
	case item.TargetPrice.Valid && newPrice.LessThanOrEqual(item.TargetPrice.Decimal):
		res.Status = model.StatusTargetHit
		alertType = model.AlertTypeTargetHit
	case item.NotifyOnDrop && dropPct.GreaterThanOrEqual(item.DropThreshold):
		alertType = model.AlertTypePriceDrop
	default:
		return res
	}

	res.Alert = &model.PriceAlert{
		UserID:         item.UserID,
		ItemID:         item.ID,
		Type:           alertType,
		ProductName:    res.Name,
		PreviousPrice:  previous,
		NewPrice:       newPrice,
		DropPercentage: dropPct,
		URL:            item.URL,
	}
	return res
}
