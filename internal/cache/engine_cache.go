package cache

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
)

// Cache key prefixes.
const (
	UserProfileCachePrefix = "khaki-user-"
)

// UserProfileTTL is how long a user profile stays cached.
const UserProfileTTL = 10 * time.Minute

// UserProfile is the cached, credential-free view of a user.
type UserProfile struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserLoader loads a user from persistent storage.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*database.User, error)
}

// EngineCache holds the caches used by the engine.
// Calendar entries are never cached, totals are always read from the database.
type EngineCache struct {
	UserCache *PrefixedCache[UserProfile]
}

// NewEngineCache creates the engine caches for the configured store.
func NewEngineCache(cfg *config.CacheConfig) *EngineCache {
	cacheType := config.CacheTypeMemory
	if cfg != nil && cfg.Type != "" {
		cacheType = cfg.Type
	}
	return &EngineCache{
		UserCache: NewPrefixedCache[UserProfile](
			newCacheInstanceByType(cfg),
			cacheType,
			UserProfileCachePrefix,
		),
	}
}

// GetUser returns the profile of a user, loading and caching it on a miss.
// Users are immutable after registration so entries are only evicted by their TTL.
func (e *EngineCache) GetUser(ctx context.Context, id uint, loader UserLoader) (UserProfile, error) {
	profile, err := e.UserCache.Get(ctx, id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.NotFound{}) {
		log.Debug("user cache lookup failed", "user_id", id, "error", err)
	}

	user, err := loader.GetUserByID(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}

	profile = UserProfile{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		Email:    user.Email,
	}
	if err := e.UserCache.Set(ctx, id, profile, store.WithExpiration(UserProfileTTL)); err != nil {
		log.Warn("failed to cache user", "user_id", id, "error", err)
	}
	return profile, nil
}

// ClearAll empties every engine cache.
func (e *EngineCache) ClearAll(ctx context.Context) {
	if err := e.UserCache.Clear(ctx); err != nil {
		log.Errorf("failed to clear cache: %v", err)
	}
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
	CacheType string `json:"cacheType"`
}

// GetStats returns hit and miss counters of every engine cache.
func (e *EngineCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     e.UserCache.GetStats(),
			CacheName: "users",
			CacheType: string(e.UserCache.GetType()),
		},
	}
}
