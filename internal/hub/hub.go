// Package hub fans state-change messages out to all live subscribers.
package hub

import (
	"sync"

	"inventory-hub/internal/models"
	"inventory-hub/internal/util"

	"go.uber.org/zap"
)

// Subscriber is a live connection handle. Send must not block; a failed
// send marks the subscriber dead.
type Subscriber interface {
	Send(msg models.Message) error
}

// Hub owns the subscriber set for the process lifetime. Registration,
// unregistration and publishing are safe to call concurrently.
type Hub struct {
	mu     sync.Mutex
	subs   map[Subscriber]struct{}
	logger *zap.Logger
}

// New creates an empty hub
func New() *Hub {
	return &Hub{
		subs:   make(map[Subscriber]struct{}),
		logger: util.GetLogger(),
	}
}

// Register adds a subscriber to the live set
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	util.SubscribersGauge.Set(float64(n))
	h.logger.Info("Subscriber registered", zap.Int("subscribers", n))
}

// Unregister removes a subscriber; removing an absent one is a no-op
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		util.SubscribersGauge.Set(float64(n))
		h.logger.Info("Subscriber unregistered", zap.Int("subscribers", n))
	}
}

// Count returns the number of live subscribers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers msg to every live subscriber, best-effort. The set is
// snapshotted under the lock and iterated outside it, so registrations
// racing a publish are safe. A send failure is an implicit disconnect,
// never a fatal error for the publish call.
func (h *Hub) Publish(msg models.Message) {
	h.mu.Lock()
	snapshot := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.Unlock()

	for _, s := range snapshot {
		if err := s.Send(msg); err != nil {
			h.logger.Warn("Dropping dead subscriber", zap.Error(err))
			h.Unregister(s)
		}
	}
}
