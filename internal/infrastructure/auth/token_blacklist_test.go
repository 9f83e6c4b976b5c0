package auth_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemKV() *memKV { return &memKV{values: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memKV) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (m *memKV) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	_, exists := m.values[key]
	m.mu.Unlock()
	if exists {
		return redis.NewBoolResult(false, nil)
	}
	m.Set(ctx, key, value, ttl)
	return redis.NewBoolResult(true, nil)
}

func (m *memKV) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *memKV) Ping(context.Context) *redis.StatusCmd { return redis.NewStatusResult("PONG", nil) }

func TestTokenBlacklists(t *testing.T) {
	impls := map[string]func() auth.TokenBlacklist{
		"memory": func() auth.TokenBlacklist { return auth.NewInMemoryTokenBlacklist() },
		"redis":  func() auth.TokenBlacklist { return auth.NewRedisTokenBlacklist(newMemKV()) },
	}

	for name, newBlacklist := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("revokes single token", func(t *testing.T) {
				b := newBlacklist()
				require.NoError(t, b.AddToBlacklist(ctx, "jti-1", time.Hour))

				revoked, err := b.IsBlacklisted(ctx, "jti-1")
				require.NoError(t, err)
				assert.True(t, revoked)

				revoked, err = b.IsBlacklisted(ctx, "jti-2")
				require.NoError(t, err)
				assert.False(t, revoked)
			})

			t.Run("revokes tokens issued before user invalidation", func(t *testing.T) {
				b := newBlacklist()
				issued := time.Now().Add(-time.Hour)

				invalidated, err := b.IsUserTokenInvalidated(ctx, "user-1", issued)
				require.NoError(t, err)
				assert.False(t, invalidated)

				require.NoError(t, b.AddUserTokensToBlacklist(ctx, "user-1", time.Hour))

				invalidated, err = b.IsUserTokenInvalidated(ctx, "user-1", issued)
				require.NoError(t, err)
				assert.True(t, invalidated)

				invalidated, err = b.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(2*time.Second))
				require.NoError(t, err)
				assert.False(t, invalidated)

				invalidated, err = b.IsUserTokenInvalidated(ctx, "user-2", issued)
				require.NoError(t, err)
				assert.False(t, invalidated)
			})
		})
	}
}

func TestInMemoryTokenBlacklist_ExpirationCleanup(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "test-jti-expire", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "test-jti-expire")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestRedisTokenBlacklist_MalformedTimestamp(t *testing.T) {
	kv := newMemKV()
	kv.values["token:blacklist:user:u1"] = "yesterday"
	b := auth.NewRedisTokenBlacklist(kv)

	_, err := b.IsUserTokenInvalidated(context.Background(), "u1", time.Now())
	assert.Error(t, err)

	kv.values["token:blacklist:user:u1"] = strconv.FormatInt(time.Now().Unix(), 10)
	invalidated, err := b.IsUserTokenInvalidated(context.Background(), "u1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated)
}
