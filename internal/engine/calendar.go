package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/api/models"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/samber/lo"
)

// CalendarView materializes the target's entries for every month of the period and
// projects them into month grids.
func (e *Engine) CalendarView(ctx context.Context, actor policy.Actor, targetUserID uint) (*models.CalendarView, error) {
	if !e.policy.CanView(actor, targetUserID) {
		return nil, ErrForbidden
	}

	target, err := e.targetUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	months := e.Period().Months()
	dates := period.MonthsToDates(months)

	entries, err := e.db.MaterializeEntries(ctx, targetUserID, dates)
	if err != nil {
		return nil, storageError("materialize entries", err)
	}

	total, err := e.TotalHours(ctx, targetUserID, dates)
	if err != nil {
		return nil, err
	}

	view := models.BuildCalendarView(
		models.ToTargetUser(target),
		months,
		entries,
		total,
		e.policy.CanEdit(actor, targetUserID),
		e.policy,
	)
	return &view, nil
}

// Save validates a batch of edits and writes it atomically.
// The whole batch is rejected if the actor may not edit the target or any date is
// unknown, outside the editable window or was never shown to anyone. Save never creates entries.
func (e *Engine) Save(ctx context.Context, actor policy.Actor, targetUserID uint, edits map[string]string) error {
	if !e.policy.CanEdit(actor, targetUserID) {
		log.Warn("rejected edit", "actor", actor.ID, "target", targetUserID)
		return ErrUnauthorizedEdit
	}

	values, err := e.validateEdits(edits)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	target, err := e.targetUser(ctx, targetUserID)
	if err != nil {
		return err
	}

	dates := lo.Keys(values)
	slices.SortFunc(dates, period.Date.Compare)

	stored, err := e.db.GetEntries(ctx, targetUserID, dates)
	if err != nil {
		return storageError("get entries", err)
	}
	if missing := lo.Filter(dates, func(d period.Date, _ int) bool {
		_, ok := stored[d]
		return !ok
	}); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNotMaterialized, missing[0])
	}

	if err := e.db.UpdateEntries(ctx, targetUserID, values); err != nil {
		return storageError("update entries", err)
	}

	log.Debug("saved entries", "actor", actor.ID, "target", targetUserID, "count", len(values))
	e.notifyCalendarUpdated(ctx, actor, target, values)
	return nil
}

func (e *Engine) validateEdits(edits map[string]string) (map[period.Date]string, error) {
	values := make(map[period.Date]string, len(edits))
	for key, raw := range edits {
		d, err := period.ParseDate(strings.TrimPrefix(strings.TrimSpace(key), "hours_"))
		if err != nil || !e.policy.IsInPeriod(d) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, key)
		}
		if !e.policy.IsWithinEditableWindow(d) {
			return nil, fmt.Errorf("%w: %s", ErrOutsideEditWindow, d)
		}
		values[d] = raw
	}
	return values, nil
}
