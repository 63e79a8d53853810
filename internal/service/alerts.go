package service

import (
	"context"
	"time"

	"inventory-hub/internal/models"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertService persists alerts and enforces the low-stock dedup rule:
// at most one unread low_stock alert per product at any time.
type AlertService struct {
	store  store.RecordStore
	logger *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(s store.RecordStore) *AlertService {
	return &AlertService{
		store:  s,
		logger: util.GetLogger(),
	}
}

// Submit applies defaults and inserts the candidate. A duplicate unread
// low_stock alert for the same product is a no-op, returning (nil, nil).
// Every other alert type is inserted unconditionally.
func (s *AlertService) Submit(ctx context.Context, cand models.Alert) (*models.Alert, error) {
	if cand.ID == "" {
		cand.ID = uuid.NewString()
	}
	if cand.Type == "" {
		cand.Type = models.AlertTypeInfo
	}
	if cand.Title == "" {
		cand.Title = "Novo Alerta"
	}
	if cand.Severity == "" {
		cand.Severity = models.SeverityMedium
	}
	if cand.Source == "" {
		cand.Source = models.SourceSystem
	}
	cand.Read = false
	if cand.CreatedAt.IsZero() {
		cand.CreatedAt = time.Now()
	}

	if cand.Type == models.AlertTypeLowStock {
		existing, err := s.store.FindUnreadAlert(ctx, models.AlertTypeLowStock, cand.Metadata["product_id"])
		if err != nil {
			return nil, err
		}
		if existing != nil {
			util.AlertsSuppressedTotal.Inc()
			s.logger.Debug("Duplicate low-stock alert suppressed",
				zap.String("product_id", cand.Metadata["product_id"]))
			return nil, nil
		}
	}

	out, err := s.store.InsertAlert(ctx, &cand)
	if err != nil {
		return nil, err
	}
	if out == nil {
		// A concurrent Submit won the insert between the check above and
		// ours; the store's own uniqueness arbiter suppressed this one.
		util.AlertsSuppressedTotal.Inc()
		return nil, nil
	}
	util.AlertsCreatedTotal.WithLabelValues(out.Type).Inc()
	return out, nil
}

// MarkRead flips an alert to read. Idempotent: re-marking an already-read
// or unknown alert is not an error.
func (s *AlertService) MarkRead(ctx context.Context, id string) error {
	return s.store.MarkAlertRead(ctx, id)
}
