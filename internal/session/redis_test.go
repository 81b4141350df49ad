package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisBackend(rdb)
}

func TestRedisBackendSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)

	record := &Record{Token: "abc", UserID: 42, CreatedAt: time.Now().UTC()}
	require.NoError(t, backend.Save(ctx, record, 0))
	assert.True(t, mr.Exists("session:abc"))

	got, err := backend.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(42), got.UserID)

	deleted, err := backend.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = backend.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err = backend.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisBackendTTL(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)

	require.NoError(t, backend.Save(ctx, &Record{Token: "ttl", UserID: 1}, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("session:ttl"))

	mr.FastForward(2 * time.Minute)

	got, err := backend.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisBackendRejectsInvalidRecord(t *testing.T) {
	_, backend := newTestRedis(t)

	assert.Error(t, backend.Save(context.Background(), nil, 0))
	assert.Error(t, backend.Save(context.Background(), &Record{UserID: 1}, 0))
}

func TestRedisBackendGetCorruptedPayload(t *testing.T) {
	mr, backend := newTestRedis(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := backend.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestManagerWithRedisBackend(t *testing.T) {
	ctx := context.Background()
	_, backend := newTestRedis(t)
	manager := NewManager(backend, time.Hour)

	token, err := manager.Create(ctx, 9)
	require.NoError(t, err)

	userID, ok, err := manager.Resolve(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(9), userID)

	require.NoError(t, manager.Destroy(ctx, token))
	assert.ErrorIs(t, manager.Destroy(ctx, token), ErrNoActiveSession)
}
