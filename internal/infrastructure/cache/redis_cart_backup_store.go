package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

const cartBackupKeyPrefix = "cart:backup:"

// DefaultCartBackupTTL is how long a snapshot survives without cart activity
const DefaultCartBackupTTL = 7 * 24 * time.Hour

// RedisCartBackupStore keeps the latest cart snapshot per buyer as a JSON value
type RedisCartBackupStore struct {
	client KV
	ttl    time.Duration
}

// NewRedisCartBackupStore creates a backup store; a non-positive ttl uses DefaultCartBackupTTL
func NewRedisCartBackupStore(client KV, ttl time.Duration) *RedisCartBackupStore {
	if ttl <= 0 {
		ttl = DefaultCartBackupTTL
	}
	return &RedisCartBackupStore{client: client, ttl: ttl}
}

func cartBackupKey(buyerID uuid.UUID) string {
	return cartBackupKeyPrefix + buyerID.String()
}

// Save overwrites the buyer's snapshot and refreshes its TTL
func (s *RedisCartBackupStore) Save(ctx context.Context, snapshot *cart.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := s.client.Set(ctx, cartBackupKey(snapshot.BuyerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart backup: %w", err)
	}
	return nil
}

// Load returns nil, nil when the buyer has no snapshot
func (s *RedisCartBackupStore) Load(ctx context.Context, buyerID uuid.UUID) (*cart.Snapshot, error) {
	data, err := s.client.Get(ctx, cartBackupKey(buyerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart backup: %w", err)
	}

	var snapshot cart.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cart backup: %w", err)
	}
	return &snapshot, nil
}

// Delete drops the buyer's snapshot
func (s *RedisCartBackupStore) Delete(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.client.Del(ctx, cartBackupKey(buyerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart backup: %w", err)
	}
	return nil
}

var _ cart.BackupStore = (*RedisCartBackupStore)(nil)
