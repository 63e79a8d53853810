package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory-hub/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Postgres is the production RecordStore backed by sqlx
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres connects to the database and verifies the connection
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close closes the database connection
func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) UpsertProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (id, title, price, stock, sold, status, platform, last_sync, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			sold = EXCLUDED.sold,
			status = EXCLUDED.status,
			platform = EXCLUDED.platform,
			last_sync = EXCLUDED.last_sync,
			updated_at = EXCLUDED.updated_at
		RETURNING *`

	var out models.Product
	err := s.db.GetContext(ctx, &out, query,
		p.ID, p.Title, p.Price, p.Stock, p.Sold, p.Status, p.Platform, time.Now())
	if err != nil {
		return nil, storeErr("upsert", "products", err)
	}
	return &out, nil
}

func (s *Postgres) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get", "products", err)
	}
	return &p, nil
}

func (s *Postgres) QueryProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products"
	var clauses []string
	var args []interface{}

	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if f.MaxStock != nil {
		args = append(args, *f.MaxStock)
		clauses = append(clauses, "stock <= $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, storeErr("query", "products", err)
	}
	return products, nil
}

func (s *Postgres) DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, `
		UPDATE products
		SET stock = GREATEST(stock - $1, 0), sold = sold + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, qty, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("decrement", "products", err)
	}
	return &p, nil
}

func (s *Postgres) UpsertOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	query := `
		INSERT INTO orders (id, product_id, buyer_name, amount, quantity, status, tracking_code, platform, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			quantity = EXCLUDED.quantity,
			status = EXCLUDED.status,
			tracking_code = EXCLUDED.tracking_code,
			updated_at = EXCLUDED.updated_at
		RETURNING *`

	var out models.Order
	err := s.db.GetContext(ctx, &out, query,
		o.ID, o.ProductID, o.BuyerName, o.Amount, o.Quantity, o.Status,
		o.TrackingCode, o.Platform, o.CreatedAt, time.Now())
	if err != nil {
		return nil, storeErr("upsert", "orders", err)
	}
	return &out, nil
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := s.db.GetContext(ctx, &o, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get", "orders", err)
	}
	return &o, nil
}

func (s *Postgres) QueryOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := "SELECT * FROM orders"
	var args []interface{}

	if f.Status != "" {
		args = append(args, f.Status)
		query += " WHERE status = $1"
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var orders []models.Order
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, storeErr("query", "orders", err)
	}
	return orders, nil
}

func (s *Postgres) UpdateOrderStatus(ctx context.Context, id, status, trackingCode string) (*models.Order, error) {
	var o models.Order
	err := s.db.GetContext(ctx, &o, `
		UPDATE orders
		SET status = $1, tracking_code = COALESCE(NULLIF($2, ''), tracking_code), updated_at = NOW()
		WHERE id = $3
		RETURNING *`, status, trackingCode, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("update", "orders", err)
	}
	return &o, nil
}

func (s *Postgres) InsertAlert(ctx context.Context, a *models.Alert) (*models.Alert, error) {
	// The partial unique index on unread low_stock alerts makes the insert
	// itself the arbiter: a concurrent duplicate lands on DO NOTHING and
	// surfaces here as no returned row.
	query := `
		INSERT INTO alerts (id, type, title, message, severity, source, metadata, "read", created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ((metadata->>'product_id')) WHERE "read" = false AND type = 'low_stock' DO NOTHING
		RETURNING *`

	var out models.Alert
	err := s.db.GetContext(ctx, &out, query,
		a.ID, a.Type, a.Title, a.Message, a.Severity, a.Source, a.Metadata, a.Read, a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("insert", "alerts", err)
	}
	return &out, nil
}

func (s *Postgres) FindUnreadAlert(ctx context.Context, alertType, productID string) (*models.Alert, error) {
	var a models.Alert
	err := s.db.GetContext(ctx, &a, `
		SELECT * FROM alerts
		WHERE type = $1 AND metadata->>'product_id' = $2 AND "read" = false
		ORDER BY created_at DESC LIMIT 1`, alertType, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query", "alerts", err)
	}
	return &a, nil
}

func (s *Postgres) QueryAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	query := "SELECT * FROM alerts"
	var clauses []string
	var args []interface{}

	if f.Type != "" {
		args = append(args, f.Type)
		clauses = append(clauses, "type = $"+strconv.Itoa(len(args)))
	}
	if f.UnreadOnly {
		clauses = append(clauses, `"read" = false`)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var alerts []models.Alert
	if err := s.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, storeErr("query", "alerts", err)
	}
	return alerts, nil
}

func (s *Postgres) MarkAlertRead(ctx context.Context, id string) error {
	// Idempotent: re-marking an already-read alert touches the same row
	_, err := s.db.ExecContext(ctx, `UPDATE alerts SET "read" = true WHERE id = $1`, id)
	return storeErr("update", "alerts", err)
}
