package engine

import (
	"context"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/api/models"
	"github.com/jon4hz/khaki/internal/cache"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/notify/email"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/samber/lo"
)

// Notifier sends the notification mails of the engine.
type Notifier interface {
	SendCalendarUpdated(notification email.UpdateNotification) error
	SendReminder(notification email.ReminderNotification) error
}

// notifyCalendarUpdated tells the target user in the background that someone else changed their hours.
func (e *Engine) notifyCalendarUpdated(ctx context.Context, actor policy.Actor, target cache.UserProfile, values map[period.Date]string) {
	if actor.ID == target.ID {
		return
	}

	ctx = context.WithoutCancel(ctx)
	e.notifications.Add(1)
	go func() {
		defer e.notifications.Done()

		changedBy := "The administrator"
		if profile, err := e.targetUser(ctx, actor.ID); err == nil && profile.Name != "" {
			changedBy = profile.Name
		}

		total, err := e.TotalHours(ctx, target.ID, e.Period().Dates())
		if err != nil {
			log.Error("failed to compute total for notification", "user", target.ID, "error", err)
			return
		}

		dates := slices.SortedFunc(maps.Keys(values), period.Date.Compare)
		days := lo.Map(dates, func(d period.Date, _ int) email.ChangedDay {
			return email.ChangedDay{
				Date:  d.String(),
				Hours: models.FormatHours(database.ParseHours(values[d])),
			}
		})

		if err := e.notifier.SendCalendarUpdated(email.UpdateNotification{
			UserEmail:   target.Email,
			UserName:    target.Name,
			ChangedBy:   changedBy,
			Days:        days,
			Total:       models.FormatHours(total),
			CalendarURL: e.calendarURL(),
		}); err != nil {
			log.Error("failed to send update notification", "user", target.ID, "error", err)
		}
	}()
}

func (e *Engine) calendarURL() string {
	if e.cfg.ServerURL == "" {
		return ""
	}
	return e.cfg.ServerURL + "/"
}
