package service

import (
	"context"
	"fmt"
	"time"

	"inventory-hub/internal/models"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// SweepLowStock scans active products at or below the threshold and
// submits a low_stock alert for each. The deduplicator makes repeated
// sweeps over an already-alerted product a no-op, which is what keeps a
// persistently low-stock item from producing an alert storm. Returns the
// alerts actually created.
func (p *Pipeline) SweepLowStock(ctx context.Context) ([]models.Alert, error) {
	ctx, span := util.StartSpan(ctx, "Pipeline.SweepLowStock")
	defer span.End()

	max := p.threshold
	products, err := p.store.QueryProducts(ctx, store.ProductFilter{
		Status:   models.ProductStatusActive,
		MaxStock: &max,
	})
	if err != nil {
		return nil, err
	}

	var created []models.Alert
	for _, prod := range products {
		severity := models.SeverityMedium
		if prod.Stock == 0 {
			severity = models.SeverityHigh
		}

		a, err := p.alerts.Submit(ctx, models.Alert{
			Type:     models.AlertTypeLowStock,
			Title:    "Estoque Baixo",
			Message:  fmt.Sprintf("Produto %q com estoque baixo: %d unidades", prod.Title, prod.Stock),
			Severity: severity,
			Source:   models.SourceStockMonitor,
			Metadata: models.Metadata{"product_id": prod.ID},
		})
		if err != nil {
			p.logger.Warn("Failed to submit low-stock alert",
				zap.String("product_id", prod.ID),
				zap.Error(err))
			continue
		}
		if a != nil {
			created = append(created, *a)
			p.publish(ctx, a.ID, models.Message{Type: models.MessageTypeAlert, Payload: a})
		}
	}

	return created, nil
}

// StartPeriodicSweep runs SweepLowStock on a fixed period until ctx is
// cancelled. The work runs inline in the tick loop, so an invocation can
// never overlap itself.
func (p *Pipeline) StartPeriodicSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := p.SweepLowStock(ctx); err != nil {
					p.logger.Error("Periodic low-stock sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
