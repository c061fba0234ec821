package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls int
	users map[uint]*database.User
}

func (l *countingLoader) GetUserByID(_ context.Context, id uint) (*database.User, error) {
	l.calls++
	u, ok := l.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return u, nil
}

func TestPrefixedCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewPrefixedCache[UserProfile](newMemoryCache[any](), config.CacheTypeMemory, "test-")

	_, err := c.Get(ctx, 1)
	require.Error(t, err)

	want := UserProfile{ID: 1, Name: "Alice", Username: "alice", Email: "alice@example.com"}
	require.NoError(t, c.Set(ctx, 1, want))

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, 1))
	_, err = c.Get(ctx, 1)
	assert.Error(t, err)

	assert.Equal(t, config.CacheTypeMemory, c.GetType())
}

func TestEngineCache_GetUser(t *testing.T) {
	ctx := context.Background()
	e := NewEngineCache(&config.CacheConfig{Type: config.CacheTypeMemory})
	loader := &countingLoader{users: map[uint]*database.User{
		7: {ID: 7, Name: "Alice", Username: "alice", Email: "alice@example.com", PasswordHash: "secret"},
	}}

	profile, err := e.GetUser(ctx, 7, loader)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	profile, err = e.GetUser(ctx, 7, loader)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, 1, loader.calls)

	_, err = e.GetUser(ctx, 8, loader)
	assert.True(t, errors.Is(err, database.ErrUserNotFound))

	e.ClearAll(ctx)
	_, err = e.GetUser(ctx, 7, loader)
	require.NoError(t, err)
	assert.Equal(t, 3, loader.calls)

	stats := e.GetStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "users", stats[0].CacheName)
	assert.Equal(t, "memory", stats[0].CacheType)
}

func TestNewEngineCache_NilConfig(t *testing.T) {
	e := NewEngineCache(nil)
	assert.Equal(t, config.CacheTypeMemory, e.UserCache.GetType())
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions("localhost:6379")
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 0, opts.DB)

	opts = redisOptions("redis://:secret@cache.internal:6380/2")
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
