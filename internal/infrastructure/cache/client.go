package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// KV is the subset of redis.UniversalClient the stores use
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ KV = (redis.UniversalClient)(nil)

// NewRedisClient connects to Redis and verifies the connection with a PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// HealthChecker reports Redis reachability for /health
type HealthChecker struct {
	client KV
}

// NewHealthChecker creates a health checker; a nil client reports "disabled"
func NewHealthChecker(client KV) *HealthChecker {
	return &HealthChecker{client: client}
}

// Check pings Redis
func (h *HealthChecker) Check(ctx context.Context) (string, error) {
	if h == nil || h.client == nil {
		return "disabled", nil
	}
	if err := h.client.Ping(ctx).Err(); err != nil {
		return "unhealthy", err
	}
	return "healthy", nil
}
