package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/cache"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/gravatar"
	"github.com/jon4hz/khaki/internal/notify/email"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/jon4hz/khaki/internal/scheduler"
)

// maxConcurrentUsers bounds the per-user fan-out of the admin views.
const maxConcurrentUsers = 4

// Engine ties together storage, the edit policy and the view projection.
// Every operation receives the acting user explicitly.
type Engine struct {
	db        database.DB
	cfg       *config.Config
	policy    *policy.Policy
	cache     *cache.EngineCache
	avatars   *gravatar.Resolver
	notifier  Notifier
	scheduler *scheduler.Scheduler
	now       func() time.Time

	// notifications tracks mails sent in the background.
	notifications sync.WaitGroup
}

// New creates a new Engine instance for the default reporting period.
func New(cfg *config.Config, db database.DB) (*Engine, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	avatars, err := gravatar.New(cfg.Gravatar)
	if err != nil {
		return nil, fmt.Errorf("failed to create gravatar resolver: %w", err)
	}

	notifier, err := email.New(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create email notifier: %w", err)
	}

	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	e := &Engine{
		db:        db,
		cfg:       cfg,
		policy:    policy.New(period.Default),
		cache:     cache.NewEngineCache(cfg.Cache),
		avatars:   avatars,
		notifier:  notifier,
		scheduler: sched,
		now:       time.Now,
	}

	if err := e.setupJobs(); err != nil {
		_ = sched.Stop()
		return nil, err
	}

	return e, nil
}

// Policy returns the edit policy used by the engine.
func (e *Engine) Policy() *policy.Policy {
	return e.policy
}

// Period returns the reporting period used by the engine.
func (e *Engine) Period() period.Period {
	return e.policy.Period()
}

// CacheStats returns the statistics of the engine caches.
func (e *Engine) CacheStats() []*cache.Stats {
	return e.cache.GetStats()
}

// Avatars returns the avatar resolver of the engine.
func (e *Engine) Avatars() *gravatar.Resolver {
	return e.avatars
}

// Close stops the background jobs, waits for pending notifications and releases the caches.
func (e *Engine) Close(ctx context.Context) error {
	err := e.scheduler.Stop()

	done := make(chan struct{})
	go func() {
		e.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("gave up waiting for pending notifications", "error", ctx.Err())
	}

	e.cache.ClearAll(ctx)
	return err
}

func (e *Engine) targetUser(ctx context.Context, id uint) (cache.UserProfile, error) {
	profile, err := e.cache.GetUser(ctx, id, e.db)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return cache.UserProfile{}, ErrUserNotFound
		}
		return cache.UserProfile{}, storageError("load user", err)
	}
	return profile, nil
}
