package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"inventory-hub/internal/models"
)

// Memory is an in-process RecordStore. It backs tests and the demo mode
// (DATABASE_URL=memory). All methods copy records in and out so callers
// never share memory with the store.
type Memory struct {
	mu       sync.RWMutex
	products map[string]models.Product
	orders   map[string]models.Order
	alerts   map[string]models.Alert
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]models.Product),
		orders:   make(map[string]models.Order),
		alerts:   make(map[string]models.Alert),
	}
}

func (s *Memory) UpsertProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	now := time.Now()
	cp.LastSync = now
	cp.UpdatedAt = now
	s.products[cp.ID] = cp
	return &cp, nil
}

func (s *Memory) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Memory) QueryProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Product
	for _, p := range s.products {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.MaxStock != nil && p.Stock > *f.MaxStock {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Memory) DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	p.Sold += qty
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return &p, nil
}

func (s *Memory) UpsertOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *o
	cp.UpdatedAt = time.Now()
	if existing, ok := s.orders[cp.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	s.orders[cp.ID] = cp
	return &cp, nil
}

func (s *Memory) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *Memory) QueryOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Memory) UpdateOrderStatus(ctx context.Context, id, status, trackingCode string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	o.Status = status
	if trackingCode != "" {
		o.TrackingCode = trackingCode
	}
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return &o, nil
}

func (s *Memory) InsertAlert(ctx context.Context, a *models.Alert) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Duplicate check and insert share the write lock so concurrent
	// low_stock submits for one product cannot both land.
	if a.Type == models.AlertTypeLowStock {
		for _, existing := range s.alerts {
			if existing.Type == models.AlertTypeLowStock && !existing.Read &&
				existing.Metadata["product_id"] == a.Metadata["product_id"] {
				return nil, nil
			}
		}
	}

	cp := *a
	if cp.Metadata != nil {
		md := make(models.Metadata, len(cp.Metadata))
		for k, v := range cp.Metadata {
			md[k] = v
		}
		cp.Metadata = md
	}
	s.alerts[cp.ID] = cp
	return &cp, nil
}

func (s *Memory) FindUnreadAlert(ctx context.Context, alertType, productID string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.Type == alertType && !a.Read && a.Metadata["product_id"] == productID {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Memory) QueryAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Alert
	for _, a := range s.alerts {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.UnreadOnly && a.Read {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Memory) MarkAlertRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil
	}
	a.Read = true
	s.alerts[id] = a
	return nil
}
