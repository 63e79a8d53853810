// Package generator manufactures plausible stock and order events on a
// fixed period, feeding the same pipeline path as real webhooks.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"inventory-hub/internal/service"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

var buyerNames = []string{"Ana Souza", "Bruno Lima", "Carla Mendes", "Diego Ramos", "Elisa Costa"}

var productNames = []string{"Fone Bluetooth", "Carregador Turbo", "Capa Protetora", "Smartwatch Fit", "Caixa de Som"}

var platforms = []string{"shopee", "mercadolivre", "amazon"}

// Generator produces synthetic events
type Generator struct {
	pipeline *service.Pipeline
	store    store.RecordStore
	interval time.Duration
	rnd      *rand.Rand
	logger   *zap.Logger
}

// New creates a generator ticking at interval
func New(pipeline *service.Pipeline, s store.RecordStore, interval time.Duration) *Generator {
	return &Generator{
		pipeline: pipeline,
		store:    s,
		interval: interval,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   util.GetLogger(),
	}
}

// Start runs the tick loop until ctx is cancelled. Each tick's work runs
// inline in the loop, so ticks never overlap.
func (g *Generator) Start(ctx context.Context) {
	go func() {
		g.logger.Info("Synthetic event generator started",
			zap.Duration("interval", g.interval))
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.Tick(ctx)
			}
		}
	}()
}

// Tick produces one synthetic event and runs it through the pipeline
func (g *Generator) Tick(ctx context.Context) {
	payload := g.nextEvent(ctx)
	util.GeneratorTicksTotal.Inc()

	res := g.pipeline.Ingest(ctx, payload, "system")
	if len(res.Errors) > 0 {
		g.logger.Warn("Synthetic event ingested with errors",
			zap.Int("errors", len(res.Errors)))
	}
}

func (g *Generator) nextEvent(ctx context.Context) map[string]interface{} {
	products, err := g.store.QueryProducts(ctx, store.ProductFilter{Limit: 50})
	if err != nil {
		g.logger.Warn("Generator could not list products", zap.Error(err))
	}
	if len(products) == 0 {
		return g.newProductEvent()
	}

	target := products[g.rnd.Intn(len(products))]
	switch g.rnd.Intn(10) {
	case 0, 1:
		return g.newProductEvent()
	case 2, 3, 4:
		return map[string]interface{}{
			"type":       "stock_update",
			"product_id": target.ID,
			"stock":      g.rnd.Intn(40),
		}
	default:
		qty := 1 + g.rnd.Intn(3)
		return map[string]interface{}{
			"type":       "order",
			"product_id": target.ID,
			"buyer_name": buyerNames[g.rnd.Intn(len(buyerNames))],
			"amount":     float64(qty) * target.Price,
			"quantity":   qty,
			"platform":   platforms[g.rnd.Intn(len(platforms))],
		}
	}
}

func (g *Generator) newProductEvent() map[string]interface{} {
	name := productNames[g.rnd.Intn(len(productNames))]
	return map[string]interface{}{
		"type":     "product",
		"action":   "created",
		"title":    fmt.Sprintf("%s %d", name, 100+g.rnd.Intn(900)),
		"price":    10 + g.rnd.Float64()*290,
		"stock":    5 + g.rnd.Intn(45),
		"platform": platforms[g.rnd.Intn(len(platforms))],
	}
}
