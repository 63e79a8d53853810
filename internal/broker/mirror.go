package broker

import (
	"context"
	"encoding/json"

	"inventory-hub/internal/models"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// EventMirror copies every broadcast envelope onto a Kafka topic so other
// services can follow the same state changes the live subscribers see.
// Mirroring is best-effort: a broker failure is logged and never reaches
// the pipeline.
type EventMirror struct {
	producer *Producer
	logger   *zap.Logger
}

// NewEventMirror creates a new mirror on top of a producer
func NewEventMirror(producer *Producer) *EventMirror {
	return &EventMirror{
		producer: producer,
		logger:   util.GetLogger(),
	}
}

// Mirror publishes the envelope keyed by the subject id
func (m *EventMirror) Mirror(ctx context.Context, key string, msg models.Message) {
	value, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("Failed to marshal broadcast for mirroring", zap.Error(err))
		return
	}

	if err := m.producer.Publish(ctx, key, value); err != nil {
		m.logger.Warn("Failed to mirror broadcast to Kafka",
			zap.String("key", key),
			zap.String("type", msg.Type),
			zap.Error(err))
	}
}
