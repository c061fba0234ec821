package engine

import (
	"context"

	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/period"
)

// TotalHours returns the sum of a user's hours over the given dates.
// It always reads the database so it cannot drift from a concurrent save.
func (e *Engine) TotalHours(ctx context.Context, userID uint, dates []period.Date) (float64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	total, err := e.db.SumHours(ctx, userID, dates)
	if err != nil {
		return 0, storageError("sum hours", err)
	}
	return total, nil
}

// StatsForUser returns the first and last active day and the total hours of a user.
// It returns nil if the user has no day with nonzero hours.
func (e *Engine) StatsForUser(ctx context.Context, userID uint) (*database.EntryStats, error) {
	stats, err := e.db.GetEntryStats(ctx, userID)
	if err != nil {
		return nil, storageError("entry stats", err)
	}
	return stats, nil
}
