package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/jon4hz/khaki/internal/scheduler"
)

const (
	JobClearUserCache = "clear_user_cache"
	JobReminders      = "reminders"

	clearUserCacheSchedule = "0 0 * * 0" // Every Sunday at midnight
)

// Run starts the background jobs and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	<-ctx.Done()
	return nil
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	if err := e.scheduler.AddCronJob(
		JobClearUserCache,
		"Clear User Cache",
		"Drops every cached user profile",
		clearUserCacheSchedule,
		func(ctx context.Context) error {
			e.cache.ClearAll(ctx)
			return nil
		},
	); err != nil {
		return fmt.Errorf("failed to add clear user cache job: %w", err)
	}

	if e.cfg.RemindersEnabled() {
		if err := e.scheduler.AddCronJob(
			JobReminders,
			"Missing Hours Reminder",
			"Mails users without any hours in the previous week of the editable window",
			e.cfg.Reminders.Schedule,
			e.SendReminders,
		); err != nil {
			return fmt.Errorf("failed to add reminder job: %w", err)
		}
	}

	log.Debug("Scheduled jobs configured")
	return nil
}

// Jobs returns the scheduled jobs. Only the administrator may list them.
func (e *Engine) Jobs(actor policy.Actor) ([]scheduler.JobInfo, error) {
	if !actor.IsAdmin {
		return nil, ErrUnauthorizedEdit
	}
	return e.scheduler.Jobs(), nil
}

// RunJob triggers a scheduled job immediately. Only the administrator may run jobs.
func (e *Engine) RunJob(actor policy.Actor, id string) error {
	if !actor.IsAdmin {
		return ErrUnauthorizedEdit
	}
	if err := e.scheduler.RunJobNow(id); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return err
	}
	return nil
}
