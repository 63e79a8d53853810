package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_ingested_total",
		Help: "Total number of inbound events processed, by kind and source",
	}, []string{"kind", "source"})

	IngestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_errors_total",
		Help: "Total number of per-event ingest failures",
	}, []string{"reason"})

	IngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_latency_seconds",
		Help:    "Latency of full ingest runs including the low-stock sweep",
		Buckets: prometheus.DefBuckets,
	})

	AlertsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_created_total",
		Help: "Total number of alerts persisted, by type",
	}, []string{"type"})

	AlertsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_suppressed_total",
		Help: "Total number of duplicate low-stock alerts suppressed",
	})

	StockDecrementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrements_total",
		Help: "Total number of order-driven stock decrements applied",
	})

	StockDecrementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrement_failures_total",
		Help: "Total number of dependent stock decrements that failed after order creation",
	})

	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcasts_total",
		Help: "Total number of messages fanned out to subscribers, by message type",
	}, []string{"type"})

	SubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subscribers_connected",
		Help: "Number of live broadcast subscribers",
	})

	WebhookDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_duplicates_total",
		Help: "Total number of webhook deliveries dropped by delivery-id dedup",
	})

	GeneratorTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "generator_ticks_total",
		Help: "Total number of synthetic events produced",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
