// Package store holds the record-store collaborator behind the pipeline.
// Two implementations exist: Postgres (production) and Memory (tests, demo).
// A single-row lookup that finds nothing returns (nil, nil); every failure
// is a *StoreError wrapping the underlying cause.
package store

import (
	"context"
	"fmt"

	"inventory-hub/internal/models"
)

// RecordStore is the persistence surface used by the pipeline
type RecordStore interface {
	UpsertProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	QueryProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)
	// DecrementStock applies stock = max(stock - qty, 0) as one atomic
	// store operation and returns the post-decrement product, or (nil, nil)
	// when the product does not exist.
	DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error)

	UpsertOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	QueryOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status, trackingCode string) (*models.Order, error)

	// InsertAlert persists the alert. Insert and uniqueness check are one
	// atomic store operation for low_stock alerts: when an unread low_stock
	// alert already exists for the same product it returns (nil, nil) and
	// writes nothing.
	InsertAlert(ctx context.Context, a *models.Alert) (*models.Alert, error)
	FindUnreadAlert(ctx context.Context, alertType, productID string) (*models.Alert, error)
	QueryAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
}

// ProductFilter narrows a product scan
type ProductFilter struct {
	Status   string
	MaxStock *int
	Limit    int
}

// OrderFilter narrows an order scan; results are newest first
type OrderFilter struct {
	Status string
	Limit  int
}

// AlertFilter narrows an alert scan; results are newest first
type AlertFilter struct {
	Type       string
	UnreadOnly bool
	Limit      int
}

// StoreError reports a collaborator failure. The pipeline records it
// per-event and continues with sibling work.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Table: table, Err: err}
}
