package engine

import (
	"context"

	"github.com/jon4hz/khaki/internal/api/models"
	"github.com/jon4hz/khaki/internal/policy"
	"golang.org/x/sync/errgroup"
)

// UserOverview returns the statistics of every user that owns entries, ordered by name.
func (e *Engine) UserOverview(ctx context.Context, actor policy.Actor) ([]models.UserStats, error) {
	if !actor.IsAdmin {
		return nil, ErrUnauthorizedEdit
	}

	users, err := e.db.GetUsersWithEntries(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}

	now := e.now()
	rows := make([]models.UserStats, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUsers)
	for i, u := range users {
		g.Go(func() error {
			stats, err := e.StatsForUser(gctx, u.ID)
			if err != nil {
				return err
			}
			rows[i] = models.ToUserStats(u, stats, e.avatars.Avatar(u.Name, u.Email), now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Summary materializes the full period for every user that owns entries and
// projects it into the all-users pivot table.
func (e *Engine) Summary(ctx context.Context, actor policy.Actor) (*models.Pivot, error) {
	if !actor.IsAdmin {
		return nil, ErrUnauthorizedEdit
	}

	users, err := e.db.GetUsersWithEntries(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}

	dates := e.Period().Dates()
	rows := make([]models.PivotUser, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUsers)
	for i, u := range users {
		g.Go(func() error {
			entries, err := e.db.MaterializeEntries(gctx, u.ID, dates)
			if err != nil {
				return storageError("materialize entries", err)
			}
			total, err := e.TotalHours(gctx, u.ID, dates)
			if err != nil {
				return err
			}
			rows[i] = models.PivotUser{
				ID:       u.ID,
				Name:     u.Name,
				Username: u.Username,
				Entries:  entries,
				Total:    total,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pivot := models.BuildPivot(dates, rows)
	return &pivot, nil
}
