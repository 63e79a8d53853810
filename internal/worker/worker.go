package worker

import (
	"context"
	"encoding/json"

	"inventory-hub/internal/broker"
	"inventory-hub/internal/service"
	"inventory-hub/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWorker feeds inbound Kafka events through the same pipeline the
// webhook surface uses.
type EventWorker struct {
	consumer *broker.Consumer
	pipeline *service.Pipeline
	logger   *zap.Logger
}

// NewEventWorker creates a new event worker
func NewEventWorker(consumer *broker.Consumer, pipeline *service.Pipeline) *EventWorker {
	return &EventWorker{
		consumer: consumer,
		pipeline: pipeline,
		logger:   util.GetLogger(),
	}
}

// Start consumes until ctx is cancelled
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *EventWorker) Stop() error {
	w.logger.Info("Stopping event worker")
	return w.consumer.Close()
}

func (w *EventWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		// A frame that is not a JSON object can never classify; drop it
		// rather than blocking the partition on retries.
		w.logger.Warn("Discarding non-object Kafka event", zap.Error(err))
		return nil
	}

	res := w.pipeline.Ingest(ctx, payload, "kafka")
	if len(res.Errors) > 0 {
		w.logger.Warn("Kafka event ingested with errors",
			zap.Int("processed", len(res.Processed)),
			zap.Int("errors", len(res.Errors)))
	}
	return nil
}
