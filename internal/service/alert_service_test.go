package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wealthpath/pricewatch/internal/apperror"
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/repository"
)

func TestAlertService_ListAlerts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      ListAlertsInput
		wantFilter repository.AlertFilters
		wantPage   int
		wantLimit  int
	}{
		{
			name:       "defaults",
			input:      ListAlertsInput{},
			wantFilter: repository.AlertFilters{Limit: 20, Offset: 0},
			wantPage:   1,
			wantLimit:  20,
		},
		{
			name:       "limit is capped",
			input:      ListAlertsInput{Limit: 500, Page: 2},
			wantFilter: repository.AlertFilters{Limit: 100, Offset: 100},
			wantPage:   2,
			wantLimit:  100,
		},
		{
			name:       "unread only with paging",
			input:      ListAlertsInput{UnreadOnly: true, Limit: 10, Page: 3},
			wantFilter: repository.AlertFilters{UnreadOnly: true, Limit: 10, Offset: 20},
			wantPage:   3,
			wantLimit:  10,
		},
		{
			name:       "negative page falls back to first",
			input:      ListAlertsInput{Limit: 5, Page: -4},
			wantFilter: repository.AlertFilters{Limit: 5, Offset: 0},
			wantPage:   1,
			wantLimit:  5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			userID := uuid.New()
			alerts := new(MockAlertRepo)
			listed := []model.AlertWithItem{{PriceAlert: model.PriceAlert{ID: uuid.New(), Type: model.AlertTypePriceDrop}}}
			alerts.On("ListByUser", mock.Anything, userID, tt.wantFilter).Return(listed, nil)
			alerts.On("Count", mock.Anything, userID, tt.input.UnreadOnly).Return(12, nil).Once()
			alerts.On("Count", mock.Anything, userID, true).Return(4, nil).Once()

			page, err := NewAlertService(alerts, new(MockWatchlistRepo)).ListAlerts(context.Background(), userID, tt.input)

			require.NoError(t, err)
			assert.Len(t, page.Alerts, 1)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantLimit, page.Limit)
			if tt.input.UnreadOnly {
				assert.Equal(t, 12, page.Total)
			}
			alerts.AssertExpectations(t)
		})
	}
}

func TestAlertService_ListAlerts_TotalVersusUnread(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	alerts := new(MockAlertRepo)
	alerts.On("ListByUser", mock.Anything, userID, mock.Anything).Return([]model.AlertWithItem{}, nil)
	alerts.On("Count", mock.Anything, userID, false).Return(9, nil)
	alerts.On("Count", mock.Anything, userID, true).Return(2, nil)

	page, err := NewAlertService(alerts, nil).ListAlerts(context.Background(), userID, ListAlertsInput{})

	require.NoError(t, err)
	assert.Equal(t, 9, page.Total)
	assert.Equal(t, 2, page.Unread)
	assert.NotNil(t, page.Alerts)
}

func TestAlertService_ListAlerts_RepositoryError(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	alerts := new(MockAlertRepo)
	alerts.On("ListByUser", mock.Anything, userID, mock.Anything).Return(nil, errors.New("connection reset"))

	page, err := NewAlertService(alerts, nil).ListAlerts(context.Background(), userID, ListAlertsInput{})

	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestAlertService_MarkRead(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	good1, good2 := uuid.New(), uuid.New()

	alerts := new(MockAlertRepo)
	alerts.On("MarkRead", mock.Anything, userID, []uuid.UUID{good1, good2}).Return(int64(1), nil)

	updated, err := NewAlertService(alerts, nil).MarkRead(context.Background(), userID,
		[]string{good1.String(), "not-a-uuid", "", good2.String()})

	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	alerts.AssertExpectations(t)
}

func TestAlertService_CreateAlert(t *testing.T) {
	t.Parallel()

	userID, itemID := uuid.New(), uuid.New()
	item := &model.WatchlistItem{ID: itemID, UserID: userID, Name: "Kindle Paperwhite", URL: "https://www.amazon.in/dp/B0CFPJYX7P"}

	tests := []struct {
		name       string
		input      CreateAlertInput
		setupMocks func(*MockWatchlistRepo, *MockAlertRepo)
		wantStatus int
	}{
		{
			name:       "unknown type",
			input:      CreateAlertInput{Type: "price_rise"},
			setupMocks: func(*MockWatchlistRepo, *MockAlertRepo) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "item not owned",
			input: CreateAlertInput{Type: model.AlertTypePriceDrop},
			setupMocks: func(items *MockWatchlistRepo, _ *MockAlertRepo) {
				items.On("GetByID", mock.Anything, itemID, userID).Return(nil, repository.ErrItemNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "created",
			input: CreateAlertInput{
				Type:           model.AlertTypeTargetHit,
				PreviousPrice:  decimal.NewFromInt(14999),
				NewPrice:       decimal.NewFromInt(12999),
				DropPercentage: decimal.RequireFromString("13.334"),
			},
			setupMocks: func(items *MockWatchlistRepo, alerts *MockAlertRepo) {
				items.On("GetByID", mock.Anything, itemID, userID).Return(item, nil)
				alerts.On("Create", mock.Anything, mock.AnythingOfType("*model.PriceAlert")).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items, alerts := new(MockWatchlistRepo), new(MockAlertRepo)
			tt.setupMocks(items, alerts)

			alert, err := NewAlertService(alerts, items).CreateAlert(context.Background(), userID, itemID, tt.input)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, apperror.GetStatusCode(err))
				assert.Nil(t, alert)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Kindle Paperwhite", alert.ProductName)
			assert.Equal(t, item.URL, alert.URL)
			assert.True(t, alert.DropPercentage.Equal(decimal.RequireFromString("13.3")))
			assert.NotEqual(t, uuid.Nil, alert.ID)
			items.AssertExpectations(t)
			alerts.AssertExpectations(t)
		})
	}
}

func TestAlertService_Stats(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	detail := func(status model.WatchStatus, original, current string) model.WatchlistItemDetail {
		d := model.WatchlistItemDetail{WatchlistItem: model.WatchlistItem{ID: uuid.New(), Status: status}}
		if original != "" {
			d.OriginalPrice = decimal.NewNullDecimal(decimal.RequireFromString(original))
		}
		if current != "" {
			d.CurrentPrice = decimal.NewNullDecimal(decimal.RequireFromString(current))
		}
		return d
	}

	items, alerts := new(MockWatchlistRepo), new(MockAlertRepo)
	items.On("ListByUser", mock.Anything, userID).Return([]model.WatchlistItemDetail{
		detail(model.StatusWatching, "1000", "899.60"),
		detail(model.StatusTargetHit, "500", "450"),
		detail(model.StatusWatching, "300", "350"),
		detail(model.StatusPaused, "", ""),
		detail(model.StatusPurchased, "200", "199.90"),
	}, nil)
	alerts.On("Count", mock.Anything, userID, true).Return(3, nil)

	stats, err := NewAlertService(alerts, items).Stats(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalTracking)
	assert.Equal(t, 1, stats.TargetHits)
	assert.Equal(t, 2, stats.ActiveWatches)
	assert.Equal(t, 3, stats.UnreadAlerts)
	// 100.40 + 50 + 0.10 = 150.50
	assert.True(t, stats.TotalSaved.Equal(decimal.NewFromInt(151)), "got %s", stats.TotalSaved)
}

func TestAlertService_Stats_EmptyWatchlist(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	items, alerts := new(MockWatchlistRepo), new(MockAlertRepo)
	items.On("ListByUser", mock.Anything, userID).Return([]model.WatchlistItemDetail{}, nil)
	alerts.On("Count", mock.Anything, userID, true).Return(0, nil)

	stats, err := NewAlertService(alerts, items).Stats(context.Background(), userID)

	require.NoError(t, err)
	assert.Zero(t, stats.TotalTracking)
	assert.True(t, stats.TotalSaved.IsZero())
}
