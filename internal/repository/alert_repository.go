package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/wealthpath/pricewatch/internal/model"
)

// AlertFilters narrows an alert listing.
type AlertFilters struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *model.PriceAlert) error {
	return insertAlert(ctx, r.db, alert)
}

// ListByUser returns a page of alerts newest first, each joined with its item summary.
func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID, f AlertFilters) ([]model.AlertWithItem, error) {
	alerts := []model.AlertWithItem{}
	query := `
		SELECT a.id, a.user_id, a.item_id, a.type, a.product_name, a.previous_price, a.new_price,
			a.drop_percentage, a.url, a.read, a.created_at,
			w.id AS "item.id", w.name AS "item.name", w.image_url AS "item.image_url",
			w.platform AS "item.platform"
		FROM price_alerts a
		JOIN watchlist_items w ON w.id = a.item_id
		WHERE a.user_id = $1 AND ($2 = false OR a.read = false)
		ORDER BY a.created_at DESC
		LIMIT $3 OFFSET $4`
	err := r.db.SelectContext(ctx, &alerts, query, userID, f.UnreadOnly, f.Limit, f.Offset)
	return alerts, err
}

// Count returns the number of the owner's alerts, optionally only unread ones.
func (r *AlertRepository) Count(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM price_alerts WHERE user_id = $1 AND ($2 = false OR read = false)`
	err := r.db.GetContext(ctx, &count, query, userID, unreadOnly)
	return count, err
}

// CountByItem returns how many alerts the item has raised for its owner.
func (r *AlertRepository) CountByItem(ctx context.Context, itemID, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM price_alerts WHERE item_id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &count, query, itemID, userID)
	return count, err
}

func (r *AlertRepository) ListByItem(ctx context.Context, itemID, userID uuid.UUID, limit int) ([]model.PriceAlert, error) {
	alerts := []model.PriceAlert{}
	query := `
		SELECT * FROM price_alerts
		WHERE item_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3`
	err := r.db.SelectContext(ctx, &alerts, query, itemID, userID, limit)
	return alerts, err
}

// MarkRead flags the given alerts as read. Ids owned by someone else are
// skipped by the user_id predicate, so the count covers only the caller's rows.
func (r *AlertRepository) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	query := `UPDATE price_alerts SET read = true WHERE user_id = $1 AND id = ANY($2::uuid[])`
	result, err := r.db.ExecContext(ctx, query, userID, pq.Array(strIDs))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func insertAlert(ctx context.Context, ext sqlx.ExtContext, alert *model.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (id, user_id, item_id, type, product_name, previous_price, new_price,
			drop_percentage, url, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, NOW())
		RETURNING created_at`

	alert.ID = uuid.New()
	alert.Read = false
	err := ext.QueryRowxContext(ctx, query,
		alert.ID, alert.UserID, alert.ItemID, alert.Type, alert.ProductName, alert.PreviousPrice,
		alert.NewPrice, alert.DropPercentage, alert.URL,
	).Scan(&alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert price alert: %w", err)
	}
	return nil
}
