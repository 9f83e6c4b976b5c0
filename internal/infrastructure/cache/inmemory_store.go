package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore implements IdempotencyStore with a map of expiry times.
// Used when Redis is not configured; state is not shared between instances.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiresAt map[string]time.Time
	now       func() time.Time
}

// NewInMemoryIdempotencyStore creates an empty store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		expiresAt: make(map[string]time.Time),
		now:       time.Now,
	}
}

// MarkProcessed returns true if the ID was unseen or its marker had expired
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiresAt[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.evictExpired(now)
	s.expiresAt[eventID] = now.Add(ttl)
	return true, nil
}

// IsProcessed checks if an event has already been processed
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiresAt[eventID]
	return ok && s.now().Before(exp), nil
}

// Unmark forgets an event
func (s *InMemoryIdempotencyStore) Unmark(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expiresAt, eventID)
	return nil
}

// Size returns the number of live and expired-but-not-evicted markers
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiresAt)
}

// evictExpired runs on writes; the caller holds the lock
func (s *InMemoryIdempotencyStore) evictExpired(now time.Time) {
	for id, exp := range s.expiresAt {
		if !now.Before(exp) {
			delete(s.expiresAt, id)
		}
	}
}

// InMemoryCartBackupStore keeps cart snapshots in process memory
type InMemoryCartBackupStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]cart.Snapshot
}

// NewInMemoryCartBackupStore creates an empty backup store
func NewInMemoryCartBackupStore() *InMemoryCartBackupStore {
	return &InMemoryCartBackupStore{snapshots: make(map[uuid.UUID]cart.Snapshot)}
}

func (s *InMemoryCartBackupStore) Save(ctx context.Context, snapshot *cart.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.BuyerID] = *cart.NewSnapshotAt(snapshot.BuyerID, snapshot.Items, snapshot.TakenAt)
	return nil
}

func (s *InMemoryCartBackupStore) Load(ctx context.Context, buyerID uuid.UUID) (*cart.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[buyerID]
	if !ok {
		return nil, nil
	}
	return cart.NewSnapshotAt(snap.BuyerID, snap.Items, snap.TakenAt), nil
}

func (s *InMemoryCartBackupStore) Delete(ctx context.Context, buyerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, buyerID)
	return nil
}

var (
	_ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
	_ cart.BackupStore        = (*InMemoryCartBackupStore)(nil)
)
