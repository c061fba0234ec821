package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/notify/email"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ReminderWeek returns the part of the week before today that lies inside the editable window.
// ok is false if no day of that week can be edited.
func (e *Engine) ReminderWeek(today period.Date) (period.Window, bool) {
	offset := (int(today.Weekday()) + 6) % 7 // days since Monday
	monday := today.AddDays(-offset - 7)
	week := period.Window{Start: monday, End: monday.AddDays(6)}

	editable := e.Period().Editable
	if week.Start.Before(editable.Start) {
		week.Start = editable.Start
	}
	if week.End.After(editable.End) {
		week.End = editable.End
	}
	return week, !week.Start.After(week.End)
}

// SendReminders mails every user except the administrator who recorded no hours in the
// previous week. The week is clipped to the editable window.
func (e *Engine) SendReminders(ctx context.Context) error {
	week, ok := e.ReminderWeek(period.DateOf(e.now()))
	if !ok {
		log.Debug("previous week is outside the editable window, no reminders")
		return nil
	}
	dates := week.Dates()

	users, err := e.db.ListUsers(ctx)
	if err != nil {
		return storageError("list users", err)
	}
	users = lo.Filter(users, func(u database.User, _ int) bool {
		return u.Email != "" && !e.cfg.IsAdmin(u.Username)
	})

	var sent, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUsers)
	for _, u := range users {
		g.Go(func() error {
			total, err := e.TotalHours(gctx, u.ID, dates)
			if err != nil {
				return err
			}
			if total != 0 {
				return nil
			}
			if err := e.notifier.SendReminder(email.ReminderNotification{
				UserEmail:   u.Email,
				UserName:    u.Name,
				WeekStart:   week.Start.String(),
				WeekEnd:     week.End.String(),
				Deadline:    e.Period().Editable.End.Time().Format("Monday, 2 January 2006"),
				CalendarURL: e.calendarURL(),
			}); err != nil {
				log.Error("failed to send reminder", "user", u.Username, "error", err)
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("sent reminders", "from", week.Start, "to", week.End, "sent", sent.Load(), "failed", failed.Load())
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to send %d of %d reminders", n, n+sent.Load())
	}
	return nil
}
