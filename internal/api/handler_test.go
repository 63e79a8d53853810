package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"inventory-hub/internal/hub"
	"inventory-hub/internal/models"
	"inventory-hub/internal/service"
	"inventory-hub/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDeduper mimics the SETNX semantics of the Redis client: the first
// call for an id marks it seen, every later call reports it as a replay.
type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: map[string]bool{}}
}

func (f *fakeDeduper) SeenDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[deliveryID] {
		return true, nil
	}
	f.seen[deliveryID] = true
	return false, nil
}

func newTestHandler(t *testing.T, threshold int) (*Handler, *gin.Engine, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemory()
	broadcastHub := hub.New()
	alerts := service.NewAlertService(s)
	pipeline := service.NewPipeline(s, alerts, broadcastHub, nil, threshold)
	handler := NewHandler(pipeline, alerts, s, broadcastHub, newFakeDeduper(), time.Hour, threshold)

	router := gin.New()
	handler.SetupRoutes(router)
	return handler, router, s
}

func postWebhook(t *testing.T, router *gin.Engine, deliveryID string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/shopmaster", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if deliveryID != "" {
		req.Header.Set("X-Delivery-ID", deliveryID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReplayedDeliveryShortCircuits(t *testing.T) {
	_, router, s := newTestHandler(t, 5)

	w := postWebhook(t, router, "delivery-1", map[string]interface{}{
		"type": "product", "id": "prod_1", "title": "Caneca", "stock": 50,
	})
	require.Equal(t, http.StatusOK, w.Code)

	prod, err := s.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	require.NotNil(t, prod)
	require.Equal(t, 50, prod.Stock)

	// Same delivery id, different body: nothing may change.
	w = postWebhook(t, router, "delivery-1", map[string]interface{}{
		"type": "product", "id": "prod_1", "stock": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["duplicate"])
	assert.Equal(t, "delivery-1", resp["delivery_id"])

	prod, err = s.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, 50, prod.Stock)
}

func TestFreshDeliveryIDsBothIngest(t *testing.T) {
	_, router, s := newTestHandler(t, 5)

	postWebhook(t, router, "delivery-a", map[string]interface{}{
		"type": "product", "id": "prod_1", "title": "Caneca", "stock": 50,
	})
	postWebhook(t, router, "delivery-b", map[string]interface{}{
		"type": "product", "id": "prod_1", "stock": 20,
	})

	prod, err := s.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, 20, prod.Stock)
}

func TestWebhookRejectsNonObjectBody(t *testing.T) {
	_, router, _ := newTestHandler(t, 5)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/shopmaster",
		strings.NewReader(`[1, 2, 3]`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildSnapshotComputesMetrics(t *testing.T) {
	handler, _, s := newTestHandler(t, 10)
	ctx := context.Background()

	_, err := s.UpsertProduct(ctx, &models.Product{ID: "prod_low", Title: "Caneca", Stock: 3, Status: models.ProductStatusActive})
	require.NoError(t, err)
	_, err = s.UpsertProduct(ctx, &models.Product{ID: "prod_ok", Title: "Camiseta", Stock: 50, Status: models.ProductStatusActive})
	require.NoError(t, err)

	_, err = s.UpsertOrder(ctx, &models.Order{ID: "ord_1", ProductID: "prod_ok", Amount: 100, Quantity: 1, Status: models.OrderStatusConfirmed})
	require.NoError(t, err)
	_, err = s.UpsertOrder(ctx, &models.Order{ID: "ord_2", ProductID: "prod_ok", Amount: 40, Quantity: 1, Status: models.OrderStatusCanceled})
	require.NoError(t, err)

	_, err = s.InsertAlert(ctx, &models.Alert{ID: "a1", Type: models.AlertTypeNewOrder})
	require.NoError(t, err)

	snap, err := handler.buildSnapshot(ctx)
	require.NoError(t, err)

	assert.Len(t, snap.Products, 2)
	assert.Len(t, snap.Orders, 2)
	assert.Equal(t, 2, snap.Metrics.TotalProducts)
	assert.Equal(t, 2, snap.Metrics.TotalOrders)
	assert.Equal(t, 1, snap.Metrics.UnreadAlerts)
	assert.Equal(t, 1, snap.Metrics.LowStock)
	// Canceled orders do not count toward revenue.
	assert.Equal(t, 100.0, snap.Metrics.Revenue)
}

func TestMarkAlertReadEndpoint(t *testing.T) {
	_, router, s := newTestHandler(t, 5)
	ctx := context.Background()

	_, err := s.InsertAlert(ctx, &models.Alert{ID: "a1", Type: models.AlertTypeInfo})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/a1/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	unread, err := s.QueryAlerts(ctx, store.AlertFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)
}
