package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-hub/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h *Hub, snapshot SnapshotFunc) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		NewClient(h, conn, snapshot).Run()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) models.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSubscribeReceivesInitialData(t *testing.T) {
	h := New()
	snapshot := func(ctx context.Context) (*models.Snapshot, error) {
		return &models.Snapshot{
			Products: []models.Product{{ID: "prod_1", Title: "Caneca", Stock: 3}},
			Orders:   []models.Order{{ID: "ord_1", ProductID: "prod_1", Amount: 49.9}},
			Metrics:  models.DashboardMetrics{TotalProducts: 1, TotalOrders: 1, LowStock: 1, Revenue: 49.9},
		}, nil
	}
	srv := newTestServer(t, h, snapshot)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(models.Message{Type: models.MessageTypeSubscribe}))

	msg := readMessage(t, conn)
	require.Equal(t, models.MessageTypeInitialData, msg.Type)

	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	products, ok := payload["products"].([]interface{})
	require.True(t, ok)
	assert.Len(t, products, 1)
	orders, ok := payload["orders"].([]interface{})
	require.True(t, ok)
	assert.Len(t, orders, 1)

	metrics, ok := payload["metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), metrics["total_products"])
	assert.Equal(t, float64(1), metrics["low_stock"])
	assert.Equal(t, 49.9, metrics["revenue"])
}

func TestChatMessageIsRebroadcastToAllClients(t *testing.T) {
	h := New()
	snapshot := func(ctx context.Context) (*models.Snapshot, error) {
		return &models.Snapshot{}, nil
	}
	srv := newTestServer(t, h, snapshot)
	sender := dial(t, srv)
	receiver := dial(t, srv)

	require.Eventually(t, func() bool { return h.Count() == 2 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, sender.WriteJSON(models.Message{
		Type:    models.MessageTypeChat,
		Payload: "bom dia",
	}))

	for _, conn := range []*websocket.Conn{sender, receiver} {
		msg := readMessage(t, conn)
		assert.Equal(t, models.MessageTypeChat, msg.Type)
		assert.Equal(t, "bom dia", msg.Payload)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h := New()
	snapshot := func(ctx context.Context) (*models.Snapshot, error) {
		return &models.Snapshot{}, nil
	}
	srv := newTestServer(t, h, snapshot)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.Count() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Count() == 0 },
		2*time.Second, 10*time.Millisecond)
}
