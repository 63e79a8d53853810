// Package redisclient tracks webhook delivery ids so replayed deliveries
// are dropped before they reach the pipeline.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SeenDelivery records a webhook delivery id with a TTL and reports
// whether it was already seen. SETNX makes the check-and-set atomic, so
// two replicas racing on the same delivery agree on a single winner.
func (c *Client) SeenDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	fresh, err := c.rdb.SetNX(ctx, fmt.Sprintf("delivery:%s", deliveryID), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}
