package cache

import (
	"context"
	"fmt"

	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the key-value backed stores the application needs
type Stores struct {
	Client      *redis.Client // nil when running on the in-memory fallback
	Idempotency shared.IdempotencyStore
	CartBackup  cart.BackupStore
	Health      *HealthChecker
}

// Close releases the Redis connection, if any
func (s *Stores) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// StoreFactory creates the Redis stores, falling back to process memory when allowed
type StoreFactory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is tolerated
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create connects to Redis and builds the stores
func (f *StoreFactory) Create(ctx context.Context) (*Stores, error) {
	client, err := NewRedisClient(ctx, f.cfg)
	if err == nil {
		f.logger.Info("Using Redis stores", zap.String("addr", f.cfg.Addr()))
		return &Stores{
			Client:      client,
			Idempotency: NewRedisIdempotencyStore(client, ""),
			CartBackup:  NewRedisCartBackupStore(client, f.cfg.CartBackupTTL),
			Health:      NewHealthChecker(client),
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores; "+
		"webhook deduplication and cart backups are not shared between instances",
		zap.Error(err),
	)
	return f.InMemory(), nil
}

// InMemory builds process-local stores
func (f *StoreFactory) InMemory() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		CartBackup:  NewInMemoryCartBackupStore(),
		Health:      NewHealthChecker(nil),
	}
}
