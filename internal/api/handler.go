package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"inventory-hub/internal/hub"
	"inventory-hub/internal/models"
	"inventory-hub/internal/service"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DeliveryDeduper answers whether a webhook delivery id has already been
// accepted within the TTL, marking it as seen in the same call.
type DeliveryDeduper interface {
	SeenDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
}

// Handler contains HTTP handlers
type Handler struct {
	pipeline    *service.Pipeline
	alerts      *service.AlertService
	store       store.RecordStore
	hub         *hub.Hub
	dedup       DeliveryDeduper
	deliveryTTL time.Duration
	threshold   int
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler. dedup may be nil, in which case
// delivery-id dedup is skipped.
func NewHandler(
	pipeline *service.Pipeline,
	alerts *service.AlertService,
	s store.RecordStore,
	h *hub.Hub,
	dedup DeliveryDeduper,
	deliveryTTL time.Duration,
	threshold int,
) *Handler {
	return &Handler{
		pipeline:    pipeline,
		alerts:      alerts,
		store:       s,
		hub:         h,
		dedup:       dedup,
		deliveryTTL: deliveryTTL,
		threshold:   threshold,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", h.serveWebsocket)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/webhooks/:source", h.handleWebhook)
		v1.GET("/products", h.listProducts)
		v1.GET("/orders", h.listOrders)
		v1.GET("/alerts", h.listAlerts)
		v1.POST("/alerts/:id/read", h.markAlertRead)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"subscribers": h.hub.Count(),
		"time":        time.Now().Unix(),
	})
}

// handleWebhook ingests one inbound event payload. A replayed delivery
// (same X-Delivery-ID within the TTL) short-circuits without mutating.
func (h *Handler) handleWebhook(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Request body must be a JSON object",
			"details": err.Error(),
		})
		return
	}

	if deliveryID := c.GetHeader("X-Delivery-ID"); deliveryID != "" && h.dedup != nil {
		seen, err := h.dedup.SeenDelivery(c.Request.Context(), deliveryID, h.deliveryTTL)
		if err != nil {
			h.logger.Warn("Delivery dedup check failed, processing anyway", zap.Error(err))
		} else if seen {
			util.WebhookDuplicatesTotal.Inc()
			c.JSON(http.StatusOK, gin.H{"duplicate": true, "delivery_id": deliveryID})
			return
		}
	}

	result := h.pipeline.Ingest(c.Request.Context(), payload, c.Param("source"))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) serveWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(h.hub, conn, h.buildSnapshot)
	client.Run()
}

// buildSnapshot assembles the INITIAL_DATA payload for a new subscriber
func (h *Handler) buildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	products, err := h.store.QueryProducts(ctx, store.ProductFilter{})
	if err != nil {
		return nil, err
	}
	orders, err := h.store.QueryOrders(ctx, store.OrderFilter{Limit: 50})
	if err != nil {
		return nil, err
	}
	unread, err := h.store.QueryAlerts(ctx, store.AlertFilter{UnreadOnly: true})
	if err != nil {
		return nil, err
	}

	metrics := models.DashboardMetrics{
		TotalProducts: len(products),
		TotalOrders:   len(orders),
		UnreadAlerts:  len(unread),
	}
	for _, p := range products {
		if p.Stock <= h.threshold {
			metrics.LowStock++
		}
	}
	for _, o := range orders {
		if o.Status != models.OrderStatusCanceled {
			metrics.Revenue += o.Amount
		}
	}

	return &models.Snapshot{Products: products, Orders: orders, Metrics: metrics}, nil
}

func (h *Handler) listProducts(c *gin.Context) {
	f := store.ProductFilter{Status: c.Query("status")}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		f.Limit = limit
	}
	products, err := h.store.QueryProducts(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) listOrders(c *gin.Context) {
	f := store.OrderFilter{Status: c.Query("status"), Limit: 100}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		f.Limit = limit
	}
	orders, err := h.store.QueryOrders(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) listAlerts(c *gin.Context) {
	f := store.AlertFilter{
		Type:       c.Query("type"),
		UnreadOnly: c.Query("unread") == "true",
		Limit:      100,
	}
	alerts, err := h.store.QueryAlerts(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alerts", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handler) markAlertRead(c *gin.Context) {
	if err := h.alerts.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark alert read", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
