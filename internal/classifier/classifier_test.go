package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplicitTypeMapping(t *testing.T) {
	cases := map[string]Kind{
		"product":        KindProduct,
		"PRODUCT_UPDATE": KindProduct,
		"order":          KindOrder,
		"New_Order":      KindOrder,
		"stock_update":   KindStockUpdate,
		"alert":          KindAlert,
	}

	for raw, want := range cases {
		ev := Classify(map[string]interface{}{"type": raw})
		assert.Equal(t, want, ev.Kind, "type=%s", raw)
	}
}

func TestUnknownExplicitTypeIsGeneric(t *testing.T) {
	ev := Classify(map[string]interface{}{"type": "refund", "amount": 10.0})
	assert.Equal(t, KindGeneric, ev.Kind)
}

func TestHeuristics(t *testing.T) {
	ev := Classify(map[string]interface{}{"title": "Widget"})
	assert.Equal(t, KindProduct, ev.Kind)

	ev = Classify(map[string]interface{}{"name": "Widget", "stock": 3.0})
	assert.Equal(t, KindProduct, ev.Kind)

	ev = Classify(map[string]interface{}{"buyer_name": "Ana"})
	assert.Equal(t, KindOrder, ev.Kind)

	ev = Classify(map[string]interface{}{"amount": 99.9})
	assert.Equal(t, KindOrder, ev.Kind)

	ev = Classify(map[string]interface{}{"product_id": "P1", "stock": 3.0})
	assert.Equal(t, KindStockUpdate, ev.Kind)

	ev = Classify(map[string]interface{}{"product_id": "P1"})
	assert.Equal(t, KindProduct, ev.Kind)
}

func TestProductFieldsWinOverOrderFields(t *testing.T) {
	// Heuristics are ordered: product detection runs first
	ev := Classify(map[string]interface{}{"title": "Widget", "amount": 10.0})
	assert.Equal(t, KindProduct, ev.Kind)
}

func TestTotality(t *testing.T) {
	inputs := []map[string]interface{}{
		nil,
		{},
		{"foo": "bar"},
		{"type": 42},
		{"type": ""},
		{"stock": "not-a-number"},
	}

	valid := map[Kind]bool{
		KindProduct: true, KindOrder: true, KindStockUpdate: true,
		KindAlert: true, KindGeneric: true,
	}
	for _, in := range inputs {
		ev := Classify(in)
		assert.True(t, valid[ev.Kind], "input %v resolved to %q", in, ev.Kind)
		assert.NotNil(t, ev.Payload)
	}
}
