package models

// Broadcast message types
const (
	MessageTypeProductUpdate     = "PRODUCT_UPDATE"
	MessageTypeProductSync       = "PRODUCT_SYNC"
	MessageTypeNewOrder          = "NEW_ORDER"
	MessageTypeOrderStatusUpdate = "ORDER_STATUS_UPDATE"
	MessageTypeAlert             = "ALERT"
	MessageTypeInitialData       = "INITIAL_DATA"
	MessageTypeChat              = "CHAT_MESSAGE"
	MessageTypeSubscribe         = "SUBSCRIBE"
)

// Message is the envelope delivered to every live subscriber
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Snapshot is the full-state payload sent as INITIAL_DATA to a fresh subscriber
type Snapshot struct {
	Products []Product        `json:"products"`
	Orders   []Order          `json:"orders"`
	Metrics  DashboardMetrics `json:"metrics"`
}

// DashboardMetrics are the top-level counters included in the snapshot
type DashboardMetrics struct {
	TotalProducts int     `json:"total_products"`
	TotalOrders   int     `json:"total_orders"`
	UnreadAlerts  int     `json:"unread_alerts"`
	LowStock      int     `json:"low_stock"`
	Revenue       float64 `json:"revenue"`
}
