// Package classifier assigns inbound untyped payloads to a closed set of
// event kinds. Classification is pure and total: any JSON object resolves
// to exactly one kind, falling back to KindGeneric.
package classifier

import (
	"strings"

	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// Kind identifies what an inbound payload describes
type Kind string

const (
	KindProduct     Kind = "product"
	KindOrder       Kind = "order"
	KindStockUpdate Kind = "stock_update"
	KindAlert       Kind = "alert"
	KindGeneric     Kind = "generic"
)

// Event is the tagged variant produced from an untyped payload. Downstream
// consumers switch on Kind and never probe fields to decide routing.
type Event struct {
	Kind    Kind
	Payload map[string]interface{}
}

// Classify resolves a payload to exactly one Event. An explicit type field
// wins; otherwise ordered field heuristics apply, stopping at the first match.
func Classify(payload map[string]interface{}) Event {
	if payload == nil {
		return Event{Kind: KindGeneric, Payload: map[string]interface{}{}}
	}

	if raw, ok := payload["type"].(string); ok && raw != "" {
		return Event{Kind: explicitKind(raw), Payload: payload}
	}

	return Event{Kind: detectKind(payload), Payload: payload}
}

func explicitKind(raw string) Kind {
	switch strings.ToLower(raw) {
	case "product", "product_update":
		return KindProduct
	case "order", "new_order":
		return KindOrder
	case "stock_update":
		return KindStockUpdate
	case "alert":
		return KindAlert
	default:
		util.GetLogger().Warn("Unknown explicit event type, treating as generic",
			zap.String("type", raw))
		return KindGeneric
	}
}

func detectKind(payload map[string]interface{}) Kind {
	if hasAny(payload, "title", "name", "product_id") {
		// stock together with product_id is checked below, but product
		// fields take precedence per the heuristic ordering
		if !hasAny(payload, "title", "name") && has(payload, "stock") {
			return KindStockUpdate
		}
		return KindProduct
	}
	if hasAny(payload, "buyer_name", "order_id", "amount") {
		return KindOrder
	}
	return KindGeneric
}

func has(payload map[string]interface{}, key string) bool {
	_, ok := payload[key]
	return ok
}

func hasAny(payload map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if has(payload, k) {
			return true
		}
	}
	return false
}
