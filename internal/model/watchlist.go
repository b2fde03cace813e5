package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Platform string

const (
	PlatformAmazon   Platform = "Amazon"
	PlatformFlipkart Platform = "Flipkart"
	PlatformOther    Platform = "Other"
)

type WatchStatus string

const (
	StatusWatching  WatchStatus = "watching"
	StatusTargetHit WatchStatus = "target_hit"
	StatusPaused    WatchStatus = "paused"
	StatusPurchased WatchStatus = "purchased"
)

// Valid reports whether s is one of the statuses an owner may set.
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWatching, StatusTargetHit, StatusPaused, StatusPurchased:
		return true
	}
	return false
}

type AlertType string

const (
	AlertTypePriceDrop AlertType = "price_drop"
	AlertTypeTargetHit AlertType = "target_hit"
)

// UnknownProductName is stored when neither the caller nor the first scrape supplies a name.
const UnknownProductName = "Unknown Product"

// WatchlistItem is a tracked product URL plus its observed price bounds.
// OriginalPrice is written once on insert and never updated.
type WatchlistItem struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	UserID        uuid.UUID           `db:"user_id" json:"userId"`
	Name          string              `db:"name" json:"name"`
	URL           string              `db:"url" json:"url"`
	Platform      Platform            `db:"platform" json:"platform"`
	PlatformID    *string             `db:"platform_id" json:"platformId"`
	CurrentPrice  decimal.NullDecimal `db:"current_price" json:"currentPrice" swaggertype:"number"`
	OriginalPrice decimal.NullDecimal `db:"original_price" json:"originalPrice" swaggertype:"number"`
	LowestPrice   decimal.NullDecimal `db:"lowest_price" json:"lowestPrice" swaggertype:"number"`
	HighestPrice  decimal.NullDecimal `db:"highest_price" json:"highestPrice" swaggertype:"number"`
	TargetPrice   decimal.NullDecimal `db:"target_price" json:"targetPrice" swaggertype:"number"`
	NotifyOnDrop  bool                `db:"notify_on_drop" json:"notifyOnDrop"`
	DropThreshold decimal.Decimal     `db:"drop_threshold" json:"dropThreshold" swaggertype:"number"`
	ImageURL      *string             `db:"image_url" json:"imageUrl"`
	Currency      string              `db:"currency" json:"currency"`
	Status        WatchStatus         `db:"status" json:"status"`
	LastChecked   *time.Time          `db:"last_checked" json:"lastChecked"`
	CreatedAt     time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updatedAt"`
}

// PricePoint is one append-only history sample.
type PricePoint struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ItemID     uuid.UUID       `db:"item_id" json:"itemId"`
	Price      decimal.Decimal `db:"price" json:"price" swaggertype:"number"`
	RecordedAt time.Time       `db:"recorded_at" json:"recordedAt"`
}

// PriceAlert is immutable apart from Read.
type PriceAlert struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"userId"`
	ItemID         uuid.UUID       `db:"item_id" json:"itemId"`
	Type           AlertType       `db:"type" json:"type"`
	ProductName    string          `db:"product_name" json:"productName"`
	PreviousPrice  decimal.Decimal `db:"previous_price" json:"previousPrice" swaggertype:"number"`
	NewPrice       decimal.Decimal `db:"new_price" json:"newPrice" swaggertype:"number"`
	DropPercentage decimal.Decimal `db:"drop_percentage" json:"dropPercentage" swaggertype:"number"`
	URL            string          `db:"url" json:"url"`
	Read           bool            `db:"read" json:"read"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

// AlertItemSummary is the lightweight item snapshot attached to listed alerts.
type AlertItemSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	ImageURL *string   `db:"image_url" json:"imageUrl"`
	Platform Platform  `db:"platform" json:"platform"`
}

type AlertWithItem struct {
	PriceAlert
	Item AlertItemSummary `db:"item" json:"item"`
}

// WatchlistItemDetail is an item with its recent history and alert information.
type WatchlistItemDetail struct {
	WatchlistItem
	AlertCount   int          `db:"alert_count" json:"alertCount"`
	PriceHistory []PricePoint `db:"-" json:"priceHistory"`
	Alerts       []PriceAlert `db:"-" json:"alerts,omitempty"`
}

type WatchlistStats struct {
	TotalTracking int             `json:"totalTracking"`
	TotalSaved    decimal.Decimal `json:"totalSaved" swaggertype:"number"`
	TargetHits    int             `json:"targetHits"`
	UnreadAlerts  int             `json:"unreadAlerts"`
	ActiveWatches int             `json:"activeWatches"`
}
