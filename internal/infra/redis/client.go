package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the validation pipeline.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

const priceKey = "prices:latest"

// GetPrices returns the cached USD price table, or found=false on a miss.
func (c *Client) GetPrices(ctx context.Context) (map[string]float64, bool, error) {
	val, err := c.rdb.Get(ctx, priceKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get prices: %w", err)
	}

	var prices map[string]float64
	if err := json.Unmarshal([]byte(val), &prices); err != nil {
		return nil, false, fmt.Errorf("decode cached prices: %w", err)
	}
	return prices, true, nil
}

// SetPrices caches the USD price table with a TTL.
func (c *Client) SetPrices(ctx context.Context, prices map[string]float64, ttl time.Duration) error {
	data, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("encode prices: %w", err)
	}
	if err := c.rdb.Set(ctx, priceKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("set prices: %w", err)
	}
	return nil
}
