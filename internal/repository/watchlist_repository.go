package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wealthpath/pricewatch/internal/model"
)

var (
	ErrItemNotFound = errors.New("watchlist item not found")
	// ErrStaleCheck means the item changed after the check read it.
	ErrStaleCheck = errors.New("watchlist item changed during check")
)

const itemColumns = `id, user_id, name, url, platform, platform_id, current_price, original_price,
	lowest_price, highest_price, target_price, notify_on_drop, drop_threshold, image_url, currency,
	status, last_checked, created_at, updated_at`

// ItemUpdate carries the owner-editable fields. Nil pointers are left untouched.
type ItemUpdate struct {
	Name          *string
	TargetPrice   *decimal.NullDecimal
	NotifyOnDrop  *bool
	DropThreshold *decimal.Decimal
	Status        *model.WatchStatus
}

// IsEmpty reports whether the update would change nothing.
func (u ItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.TargetPrice == nil && u.NotifyOnDrop == nil &&
		u.DropThreshold == nil && u.Status == nil
}

// CheckResult is the persisted outcome of one successful price check.
// Baseline is the current price the result was computed from.
type CheckResult struct {
	ItemID       uuid.UUID
	UserID       uuid.UUID
	Baseline     decimal.NullDecimal
	NewPrice     decimal.Decimal
	LowestPrice  decimal.Decimal
	HighestPrice decimal.Decimal
	Name         string
	ImageURL     *string
	Status       model.WatchStatus
	CheckedAt    time.Time
	Alert        *model.PriceAlert
}

type WatchlistRepository struct {
	db *sqlx.DB
}

func NewWatchlistRepository(db *sqlx.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Create inserts the item and, when it already has a price, its first history point.
func (r *WatchlistRepository) Create(ctx context.Context, item *model.WatchlistItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO watchlist_items (id, user_id, name, url, platform, platform_id, current_price,
			original_price, lowest_price, highest_price, target_price, notify_on_drop, drop_threshold,
			image_url, currency, status, last_checked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at`

	item.ID = uuid.New()
	err = tx.QueryRowxContext(ctx, query,
		item.ID, item.UserID, item.Name, item.URL, item.Platform, item.PlatformID, item.CurrentPrice,
		item.TargetPrice, item.NotifyOnDrop, item.DropThreshold, item.ImageURL, item.Currency,
		item.Status, item.LastChecked,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert watchlist item: %w", err)
	}
	item.OriginalPrice = item.CurrentPrice
	item.LowestPrice = item.CurrentPrice
	item.HighestPrice = item.CurrentPrice

	if item.CurrentPrice.Valid {
		if err := insertPricePoint(ctx, tx, item.ID, item.CurrentPrice.Decimal); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *WatchlistRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*model.WatchlistItem, error) {
	var item model.WatchlistItem
	query := `SELECT ` + itemColumns + ` FROM watchlist_items WHERE id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &item, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByUser returns the owner's items newest first, each with its alert count.
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WatchlistItemDetail, error) {
	items := []model.WatchlistItemDetail{}
	query := `
		SELECT w.*, (SELECT COUNT(*) FROM price_alerts a WHERE a.item_id = w.id) AS alert_count
		FROM watchlist_items w
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`
	err := r.db.SelectContext(ctx, &items, query, userID)
	return items, err
}

// ListActive returns items in the watching state, oldest first. A nil userID
// selects every owner.
func (r *WatchlistRepository) ListActive(ctx context.Context, userID *uuid.UUID) ([]model.WatchlistItem, error) {
	items := []model.WatchlistItem{}
	if userID == nil {
		query := `SELECT ` + itemColumns + ` FROM watchlist_items WHERE status = $1 ORDER BY created_at ASC`
		err := r.db.SelectContext(ctx, &items, query, model.StatusWatching)
		return items, err
	}
	query := `SELECT ` + itemColumns + ` FROM watchlist_items WHERE status = $1 AND user_id = $2 ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &items, query, model.StatusWatching, *userID)
	return items, err
}

// ListHistory returns the latest limit points in chronological order.
func (r *WatchlistRepository) ListHistory(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PricePoint, error) {
	points := []model.PricePoint{}
	query := `
		SELECT id, item_id, price, recorded_at FROM (
			SELECT id, item_id, price, recorded_at FROM price_history
			WHERE item_id = $1 ORDER BY recorded_at DESC LIMIT $2
		) recent ORDER BY recorded_at ASC`
	err := r.db.SelectContext(ctx, &points, query, itemID, limit)
	return points, err
}

// Update applies the non-nil fields of u and returns the stored row.
func (r *WatchlistRepository) Update(ctx context.Context, id, userID uuid.UUID, u ItemUpdate) (*model.WatchlistItem, error) {
	if u.IsEmpty() {
		return r.GetByID(ctx, id, userID)
	}

	sets := make([]string, 0, 6)
	args := []interface{}{id, userID}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.TargetPrice != nil {
		add("target_price", *u.TargetPrice)
	}
	if u.NotifyOnDrop != nil {
		add("notify_on_drop", *u.NotifyOnDrop)
	}
	if u.DropThreshold != nil {
		add("drop_threshold", *u.DropThreshold)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE watchlist_items SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND user_id = $2 RETURNING ` + itemColumns

	var item model.WatchlistItem
	err := r.db.GetContext(ctx, &item, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes the item; history and alerts go with it through ON DELETE CASCADE.
func (r *WatchlistRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM watchlist_items WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ApplyCheck writes the new price fields, one history point and the optional
// alert in a single transaction. The row is locked first; if it is no longer
// watching or its price moved away from res.Baseline, nothing is written and
// ErrStaleCheck is returned. A name set by the owner is never replaced.
func (r *WatchlistRepository) ApplyCheck(ctx context.Context, res CheckResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current struct {
		Status       model.WatchStatus   `db:"status"`
		CurrentPrice decimal.NullDecimal `db:"current_price"`
	}
	err = tx.GetContext(ctx, &current,
		`SELECT status, current_price FROM watchlist_items WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		res.ItemID, res.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("lock watchlist item: %w", err)
	}
	if current.Status != model.StatusWatching || !sameBaseline(current.CurrentPrice, res.Baseline) {
		return ErrStaleCheck
	}

	query := `
		UPDATE watchlist_items
		SET current_price = $3, lowest_price = $4, highest_price = $5,
			name = CASE WHEN name = $10 THEN $6 ELSE name END,
			image_url = COALESCE(NULLIF(image_url, ''), $7),
			status = $8, last_checked = $9, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'watching'`
	result, err := tx.ExecContext(ctx, query,
		res.ItemID, res.UserID, res.NewPrice, res.LowestPrice, res.HighestPrice, res.Name,
		res.ImageURL, res.Status, res.CheckedAt, model.UnknownProductName,
	)
	if err != nil {
		return fmt.Errorf("update watchlist item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleCheck
	}

	if err := insertPricePoint(ctx, tx, res.ItemID, res.NewPrice); err != nil {
		return err
	}

	if res.Alert != nil {
		if err := insertAlert(ctx, tx, res.Alert); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func sameBaseline(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func insertPricePoint(ctx context.Context, tx *sqlx.Tx, itemID uuid.UUID, price decimal.Decimal) error {
	query := `INSERT INTO price_history (id, item_id, price, recorded_at) VALUES ($1, $2, $3, NOW())`
	if _, err := tx.ExecContext(ctx, query, uuid.New(), itemID, price); err != nil {
		return fmt.Errorf("insert price history: %w", err)
	}
	return nil
}
