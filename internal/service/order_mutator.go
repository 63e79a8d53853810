package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory-hub/internal/models"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// OrderMutator creates and updates orders. Order creation triggers a
// dependent stock decrement; the two are deliberately not atomic and a
// partial outcome (order recorded, stock unchanged) is an accepted,
// observable failure mode.
type OrderMutator struct {
	store    store.RecordStore
	products *ProductMutator
	logger   *zap.Logger
}

// NewOrderMutator creates a new order mutator
func NewOrderMutator(s store.RecordStore, products *ProductMutator) *OrderMutator {
	return &OrderMutator{
		store:    s,
		products: products,
		logger:   util.GetLogger(),
	}
}

// OrderResult carries the outcome of a create, including the non-fatal
// result of the dependent stock decrement.
type OrderResult struct {
	Order        *models.Order
	OrderErr     error
	Alerts       []models.Alert
	StockProduct *models.Product
	StockErr     error
}

// Create builds an order from event fields with safe defaults, then
// attempts the stock decrement regardless of how the creation went.
func (m *OrderMutator) Create(ctx context.Context, payload map[string]interface{}) *OrderResult {
	ctx, span := util.StartSpan(ctx, "OrderMutator.Create")
	defer span.End()

	id := strField(payload, "order_id", "id")
	if id == "" {
		id = NewOrderID()
	}

	order := models.Order{
		ID:        id,
		ProductID: strField(payload, "product_id"),
		BuyerName: strField(payload, "buyer_name", "buyer"),
		Amount:    numField(payload, 0, "amount"),
		Quantity:  intField(payload, 1, "quantity"),
		Status:    models.OrderStatusPending,
		Platform:  "unknown",
		CreatedAt: time.Now(),
	}
	if order.Quantity < 1 {
		order.Quantity = 1
	}
	if status := strings.ToLower(strField(payload, "status")); validOrderStatus(status) {
		order.Status = status
	}
	if platform := strField(payload, "platform"); platform != "" {
		order.Platform = platform
	}

	res := &OrderResult{}
	out, err := m.store.UpsertOrder(ctx, &order)
	if err != nil {
		res.OrderErr = err
	} else {
		res.Order = out
		res.Alerts = append(res.Alerts, models.Alert{
			Type:     models.AlertTypeNewOrder,
			Title:    "Novo Pedido",
			Message:  fmt.Sprintf("Pedido %s recebido (%s)", out.ID, out.Platform),
			Severity: models.SeverityLow,
			Source:   models.SourceWebhook,
			Metadata: models.Metadata{
				"order_id": out.ID,
				"amount":   strconv.FormatFloat(out.Amount, 'f', 2, 64),
				"platform": out.Platform,
			},
		})
	}

	// Dependent step: independent of the order-creation outcome, never
	// fatal to it.
	if order.ProductID != "" {
		p, err := m.products.Decrement(ctx, order.ProductID, order.Quantity)
		if err != nil {
			res.StockErr = err
			util.StockDecrementFailures.Inc()
			m.logger.Warn("Stock decrement failed after order event",
				zap.String("order_id", order.ID),
				zap.String("product_id", order.ProductID),
				zap.Error(err))
		} else {
			res.StockProduct = p
			util.StockDecrementsTotal.Inc()
		}
	}

	return res
}

// UpdateStatus writes a status (and optionally a tracking code) to an
// existing order. Any status may be written; monotonic progression is
// expected but not enforced here. Returns (nil, nil) when the order does
// not exist.
func (m *OrderMutator) UpdateStatus(ctx context.Context, payload map[string]interface{}) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderMutator.UpdateStatus")
	defer span.End()

	id := strField(payload, "order_id", "id")
	status := strings.ToLower(strField(payload, "status"))
	if !validOrderStatus(status) {
		status = models.OrderStatusPending
	}
	tracking := strField(payload, "tracking_code", "tracking")

	return m.store.UpdateOrderStatus(ctx, id, status, tracking)
}

func validOrderStatus(s string) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCanceled:
		return true
	}
	return false
}
