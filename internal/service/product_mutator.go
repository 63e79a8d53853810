package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-hub/internal/models"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// ProductMutator upserts products from partial event payloads and owns the
// atomic stock decrement used by order processing.
type ProductMutator struct {
	store  store.RecordStore
	logger *zap.Logger
}

// NewProductMutator creates a new product mutator
func NewProductMutator(s store.RecordStore) *ProductMutator {
	return &ProductMutator{
		store:  s,
		logger: util.GetLogger(),
	}
}

// Apply upserts a product from a partial field set and returns the
// post-upsert record together with any alert candidates to submit.
// Fields absent from the payload keep their stored value; provided but
// invalid numerics coerce to safe defaults.
func (m *ProductMutator) Apply(ctx context.Context, payload map[string]interface{}) (*models.Product, []models.Alert, error) {
	ctx, span := util.StartSpan(ctx, "ProductMutator.Apply")
	defer span.End()

	id := strField(payload, "id", "product_id")
	if id == "" {
		id = NewProductID()
	}

	existing, err := m.store.GetProduct(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	p := models.Product{ID: id, Status: models.ProductStatusActive}
	if existing != nil {
		p = *existing
	}

	if title := strField(payload, "title", "name"); title != "" {
		p.Title = title
	}
	if hasField(payload, "price") {
		p.Price = numField(payload, 0, "price")
	}
	if hasField(payload, "stock") {
		p.Stock = intField(payload, 0, "stock")
	}
	if hasField(payload, "sold") {
		p.Sold = intField(payload, 0, "sold")
	}
	if status := strings.ToLower(strField(payload, "status")); status == models.ProductStatusActive || status == models.ProductStatusPaused {
		p.Status = status
	}
	if platform := strField(payload, "platform"); platform != "" {
		p.Platform = platform
	}
	now := time.Now()
	p.LastSync = now
	p.UpdatedAt = now

	out, err := m.store.UpsertProduct(ctx, &p)
	if err != nil {
		return nil, nil, err
	}

	var alerts []models.Alert
	if strField(payload, "action") == "created" {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertTypeNewProduct,
			Title:    "Novo Produto",
			Message:  fmt.Sprintf("Produto %q cadastrado", out.Title),
			Severity: models.SeverityLow,
			Source:   models.SourceWebhook,
			Metadata: models.Metadata{"product_id": out.ID},
		})
	}

	return out, alerts, nil
}

// Decrement applies the clamped stock decrement as a single store
// operation and returns the post-decrement product.
func (m *ProductMutator) Decrement(ctx context.Context, productID string, qty int) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductMutator.Decrement")
	defer span.End()

	p, err := m.store.DecrementStock(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product not found: %s", productID)
	}

	m.logger.Debug("Stock decremented",
		zap.String("product_id", productID),
		zap.Int("quantity", qty),
		zap.Int("stock", p.Stock))
	return p, nil
}
