package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Product represents a synced catalog item
type Product struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	Sold      int       `db:"sold" json:"sold"`
	Status    string    `db:"status" json:"status"`
	Platform  string    `db:"platform" json:"platform"`
	LastSync  time.Time `db:"last_sync" json:"last_sync"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order
type Order struct {
	ID           string    `db:"id" json:"id"`
	ProductID    string    `db:"product_id" json:"product_id,omitempty"`
	BuyerName    string    `db:"buyer_name" json:"buyer_name,omitempty"`
	Amount       float64   `db:"amount" json:"amount"`
	Quantity     int       `db:"quantity" json:"quantity"`
	Status       string    `db:"status" json:"status"`
	TrackingCode string    `db:"tracking_code" json:"tracking_code,omitempty"`
	Platform     string    `db:"platform" json:"platform"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Alert represents a notification record shown on the dashboard
type Alert struct {
	ID        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Severity  string    `db:"severity" json:"severity"`
	Source    string    `db:"source" json:"source"`
	Metadata  Metadata  `db:"metadata" json:"metadata,omitempty"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Metadata is an opaque key/value bag stored as a JSON column.
// The low-stock dedup key is derived from metadata["product_id"].
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported metadata column type %T", src)
}

// Product statuses
const (
	ProductStatusActive = "active"
	ProductStatusPaused = "paused"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// Alert types
const (
	AlertTypeInfo        = "info"
	AlertTypeLowStock    = "low_stock"
	AlertTypeNewOrder    = "new_order"
	AlertTypeNewProduct  = "new_product"
	AlertTypeWebhookData = "webhook_data"
)

// Alert severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Alert sources
const (
	SourceWebhook      = "webhook"
	SourceSystem       = "system"
	SourceStockMonitor = "stock_monitor"
)
