package service

import (
	"context"
	"time"

	"inventory-hub/internal/classifier"
	"inventory-hub/internal/models"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// Broadcaster fans a message out to all live subscribers
type Broadcaster interface {
	Publish(msg models.Message)
}

// Mirror copies a broadcast onto an external stream, best-effort
type Mirror interface {
	Mirror(ctx context.Context, key string, msg models.Message)
}

// Pipeline is the ingestion orchestrator: classify, mutate, dedup, sweep,
// broadcast. It owns no ambient state beyond its collaborators and is
// created at service start.
type Pipeline struct {
	store     store.RecordStore
	products  *ProductMutator
	orders    *OrderMutator
	alerts    *AlertService
	hub       Broadcaster
	mirror    Mirror
	threshold int
	logger    *zap.Logger
}

// NewPipeline creates the orchestrator. mirror may be nil.
func NewPipeline(s store.RecordStore, alerts *AlertService, hub Broadcaster, mirror Mirror, lowStockThreshold int) *Pipeline {
	products := NewProductMutator(s)
	return &Pipeline{
		store:     s,
		products:  products,
		orders:    NewOrderMutator(s, products),
		alerts:    alerts,
		hub:       hub,
		mirror:    mirror,
		threshold: lowStockThreshold,
		logger:    util.GetLogger(),
	}
}

// ProcessedUnit identifies one successfully applied event
type ProcessedUnit struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// IngestError records one failed sub-event with its offending payload
type IngestError struct {
	Reason  string                 `json:"reason"`
	Error   string                 `json:"error"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// IngestResult is the per-call accounting returned by Ingest
type IngestResult struct {
	Processed []ProcessedUnit `json:"processed"`
	Errors    []IngestError   `json:"errors"`
}

func (r *IngestResult) fail(reason string, err error, payload map[string]interface{}) {
	r.Errors = append(r.Errors, IngestError{Reason: reason, Error: err.Error(), Payload: payload})
	util.IngestErrorsTotal.WithLabelValues(reason).Inc()
}

// Ingest runs one inbound payload through the full pipeline. It never
// returns an error: each classified unit is attempted independently and
// failures land in Errors, and the call always concludes with a low-stock
// sweep. Every visible mutation is broadcast before Ingest returns.
func (p *Pipeline) Ingest(ctx context.Context, payload map[string]interface{}, source string) *IngestResult {
	ctx, span := util.StartSpan(ctx, "Pipeline.Ingest")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IngestLatency.Observe(time.Since(start).Seconds())
	}()

	res := &IngestResult{Processed: []ProcessedUnit{}, Errors: []IngestError{}}

	var syncedProducts []models.Product
	for _, unit := range expand(payload) {
		p.ingestOne(ctx, unit, source, res, &syncedProducts)
	}

	// A batch touching several products gets one consolidated sync frame
	// on top of the per-product updates.
	if len(syncedProducts) > 1 {
		p.publish(ctx, source, models.Message{Type: models.MessageTypeProductSync, Payload: syncedProducts})
	}

	if _, err := p.SweepLowStock(ctx); err != nil {
		p.logger.Error("Low-stock sweep failed", zap.Error(err))
	}

	return res
}

// expand splits a batch envelope ({"events": [...]}) into its units;
// anything else is a single unit.
func expand(payload map[string]interface{}) []map[string]interface{} {
	if payload == nil {
		return []map[string]interface{}{{}}
	}
	raw, ok := payload["events"].([]interface{})
	if !ok {
		return []map[string]interface{}{payload}
	}
	units := make([]map[string]interface{}, 0, len(raw))
	for _, el := range raw {
		if m, ok := el.(map[string]interface{}); ok {
			units = append(units, m)
		} else {
			units = append(units, map[string]interface{}{"value": el})
		}
	}
	if len(units) == 0 {
		return []map[string]interface{}{payload}
	}
	return units
}

func (p *Pipeline) ingestOne(ctx context.Context, unit map[string]interface{}, source string, res *IngestResult, synced *[]models.Product) {
	ev := classifier.Classify(unit)
	util.EventsIngestedTotal.WithLabelValues(string(ev.Kind), source).Inc()

	switch ev.Kind {
	case classifier.KindProduct, classifier.KindStockUpdate:
		prod, alerts, err := p.products.Apply(ctx, ev.Payload)
		if err != nil {
			res.fail("store_error", err, unit)
			return
		}
		p.applyAlerts(ctx, alerts, res)
		p.publish(ctx, prod.ID, models.Message{Type: models.MessageTypeProductUpdate, Payload: prod})
		*synced = append(*synced, *prod)
		res.Processed = append(res.Processed, ProcessedUnit{Kind: string(ev.Kind), ID: prod.ID})

	case classifier.KindOrder:
		p.ingestOrder(ctx, ev.Payload, res)

	case classifier.KindAlert:
		cand := alertFromPayload(ev.Payload)
		a, err := p.alerts.Submit(ctx, cand)
		if err != nil {
			res.fail("store_error", err, unit)
			return
		}
		if a != nil {
			p.publish(ctx, a.ID, models.Message{Type: models.MessageTypeAlert, Payload: a})
			res.Processed = append(res.Processed, ProcessedUnit{Kind: string(ev.Kind), ID: a.ID})
		}

	case classifier.KindGeneric:
		// Unclassifiable input is still recorded so no inbound signal is
		// lost, and counts as processed.
		a, err := p.alerts.Submit(ctx, models.Alert{
			Type:     models.AlertTypeWebhookData,
			Title:    "Dados de Webhook",
			Message:  "Evento não reconhecido recebido de " + source,
			Severity: models.SeverityLow,
			Source:   models.SourceWebhook,
			Metadata: models.Metadata{"source": source},
		})
		if err != nil {
			res.fail("store_error", err, unit)
			return
		}
		p.publish(ctx, a.ID, models.Message{Type: models.MessageTypeAlert, Payload: a})
		res.Processed = append(res.Processed, ProcessedUnit{Kind: string(ev.Kind), ID: a.ID})
	}
}

func (p *Pipeline) ingestOrder(ctx context.Context, payload map[string]interface{}, res *IngestResult) {
	if isStatusUpdate(payload) {
		order, err := p.orders.UpdateStatus(ctx, payload)
		if err != nil {
			res.fail("store_error", err, payload)
			return
		}
		if order != nil {
			p.publish(ctx, order.ID, models.Message{Type: models.MessageTypeOrderStatusUpdate, Payload: order})
			res.Processed = append(res.Processed, ProcessedUnit{Kind: "order_status", ID: order.ID})
			return
		}
		// Unknown order id: fall through and treat the event as a create,
		// keeping ingestion permissive.
	}

	r := p.orders.Create(ctx, payload)
	if r.OrderErr != nil {
		res.fail("store_error", r.OrderErr, payload)
	} else {
		p.applyAlerts(ctx, r.Alerts, res)
		p.publish(ctx, r.Order.ID, models.Message{Type: models.MessageTypeNewOrder, Payload: r.Order})
		res.Processed = append(res.Processed, ProcessedUnit{Kind: "order", ID: r.Order.ID})
	}
	if r.StockErr != nil {
		res.fail("dependent_step", r.StockErr, payload)
	}
	if r.StockProduct != nil {
		p.publish(ctx, r.StockProduct.ID, models.Message{Type: models.MessageTypeProductUpdate, Payload: r.StockProduct})
	}
}

func (p *Pipeline) applyAlerts(ctx context.Context, candidates []models.Alert, res *IngestResult) {
	for _, cand := range candidates {
		a, err := p.alerts.Submit(ctx, cand)
		if err != nil {
			res.fail("store_error", err, nil)
			continue
		}
		if a != nil {
			p.publish(ctx, a.ID, models.Message{Type: models.MessageTypeAlert, Payload: a})
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, key string, msg models.Message) {
	p.hub.Publish(msg)
	util.BroadcastsTotal.WithLabelValues(msg.Type).Inc()
	if p.mirror != nil {
		p.mirror.Mirror(ctx, key, msg)
	}
}

// isStatusUpdate decides between the create and status-update paths for
// an order event: an explicit action wins, otherwise a bare status change
// (order id and status without order contents) is treated as an update.
func isStatusUpdate(payload map[string]interface{}) bool {
	if strField(payload, "action") == "status_update" {
		return true
	}
	return hasField(payload, "order_id") && hasField(payload, "status") &&
		!hasField(payload, "amount") && !hasField(payload, "buyer_name")
}

func alertFromPayload(payload map[string]interface{}) models.Alert {
	md := models.Metadata{}
	if raw, ok := payload["metadata"].(map[string]interface{}); ok {
		for k := range raw {
			md[k] = strField(raw, k)
		}
	}
	return models.Alert{
		Type:     strField(payload, "alert_type"),
		Title:    strField(payload, "title"),
		Message:  strField(payload, "message"),
		Severity: strField(payload, "severity"),
		Source:   strField(payload, "source"),
		Metadata: md,
	}
}
