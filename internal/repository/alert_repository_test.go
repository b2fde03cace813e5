package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealthpath/pricewatch/internal/model"
)

func newMockAlertRepo(t *testing.T) (*AlertRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return NewAlertRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestAlertRepository_Create(t *testing.T) {
	t.Parallel()

	repo, mock := newMockAlertRepo(t)
	alert := &model.PriceAlert{
		UserID:         uuid.New(),
		ItemID:         uuid.New(),
		Type:           model.AlertTypePriceDrop,
		ProductName:    "Kindle",
		PreviousPrice:  decimal.NewFromInt(10000),
		NewPrice:       decimal.NewFromInt(9000),
		DropPercentage: decimal.NewFromInt(10),
		URL:            "https://www.flipkart.com/kindle/p/itm123",
	}

	mock.ExpectQuery(`INSERT INTO price_alerts`).
		WithArgs(sqlmock.AnyArg(), alert.UserID, alert.ItemID, alert.Type, alert.ProductName,
			alert.PreviousPrice, alert.NewPrice, alert.DropPercentage, alert.URL).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	err := repo.Create(context.Background(), alert)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, alert.ID)
	assert.False(t, alert.Read)
	assert.False(t, alert.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_ListByUser(t *testing.T) {
	t.Parallel()

	repo, mock := newMockAlertRepo(t)
	userID := uuid.New()
	itemID := uuid.New()

	cols := []string{"id", "user_id", "item_id", "type", "product_name", "previous_price", "new_price",
		"drop_percentage", "url", "read", "created_at", "item.id", "item.name", "item.image_url", "item.platform"}
	mock.ExpectQuery(`FROM price_alerts a\s+JOIN watchlist_items w ON w.id = a.item_id`).
		WithArgs(userID, true, 20, 20).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			uuid.New().String(), userID.String(), itemID.String(), "target_hit", "Echo Dot", "1000", "850",
			"15", "https://www.amazon.in/dp/B09B8V1LZ3", false, time.Now(),
			itemID.String(), "Echo Dot", "https://m.media-amazon.com/images/I/echo.jpg", "Amazon",
		))

	alerts, err := repo.ListByUser(context.Background(), userID, AlertFilters{UnreadOnly: true, Limit: 20, Offset: 20})

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertTypeTargetHit, alerts[0].Type)
	assert.Equal(t, itemID, alerts[0].Item.ID)
	assert.Equal(t, model.PlatformAmazon, alerts[0].Item.Platform)
	require.NotNil(t, alerts[0].Item.ImageURL)
	assert.True(t, alerts[0].DropPercentage.Equal(decimal.NewFromInt(15)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_Count(t *testing.T) {
	t.Parallel()

	repo, mock := newMockAlertRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM price_alerts WHERE user_id = \$1`).
		WithArgs(userID, false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := repo.Count(context.Background(), userID, false)

	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_ListByItem(t *testing.T) {
	t.Parallel()

	repo, mock := newMockAlertRepo(t)
	itemID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM price_alerts\s+WHERE item_id = \$1 AND user_id = \$2`).
		WithArgs(itemID, userID, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "item_id", "type", "product_name",
			"previous_price", "new_price", "drop_percentage", "url", "read", "created_at"}))

	alerts, err := repo.ListByItem(context.Background(), itemID, userID, 10)

	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_CountByItem(t *testing.T) {
	t.Parallel()

	repo, mock := newMockAlertRepo(t)
	itemID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM price_alerts WHERE item_id = \$1 AND user_id = \$2`).
		WithArgs(itemID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountByItem(context.Background(), itemID, userID)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_MarkRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ids       []uuid.UUID
		setupMock func(sqlmock.Sqlmock)
		want      int64
		wantErr   bool
	}{
		{
			name: "only owned alerts are counted",
			ids:  []uuid.UUID{uuid.New(), uuid.New()},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE price_alerts SET read = true WHERE user_id = \$1 AND id = ANY\(\$2::uuid\[\]\)`).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			want: 1,
		},
		{
			name:      "empty id list skips the query",
			ids:       nil,
			setupMock: func(mock sqlmock.Sqlmock) {},
			want:      0,
		},
		{
			name: "database error",
			ids:  []uuid.UUID{uuid.New()},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE price_alerts`).WillReturnError(errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockAlertRepo(t)
			tt.setupMock(mock)

			updated, err := repo.MarkRead(context.Background(), uuid.New(), tt.ids)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, updated)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
