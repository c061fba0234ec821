package models

import (
	"time"

	"github.com/jon4hz/khaki/internal/cache"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/gravatar"
	"github.com/mergestat/timediff"
)

// NotAvailable is shown for statistics that are undefined.
const NotAvailable = "N/A"

// ToTargetUser converts a cached user profile to the calendar owner shown in a view.
func ToTargetUser(p cache.UserProfile) TargetUser {
	return TargetUser{
		ID:       p.ID,
		Name:     p.Name,
		Username: p.Username,
	}
}

// ToUserStats converts a user and its entry statistics to a row of the admin user list.
// A nil stats means the user has no active day.
func ToUserStats(u database.User, stats *database.EntryStats, avatar gravatar.Avatar, now time.Time) UserStats {
	row := UserStats{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		AvatarURL:    avatar.URL,
		Initials:     avatar.Initials,
		FirstActive:  NotAvailable,
		LastActive:   NotAvailable,
		TotalDisplay: FormatHours(0),
	}
	if stats == nil {
		return row
	}

	row.HasActivity = true
	row.FirstActive = stats.FirstActive.String()
	row.LastActive = stats.LastActive.String()
	row.LastActiveRelative = timediff.TimeDiff(stats.LastActive.Time(), timediff.WithStartTime(now))
	row.TotalHours = stats.TotalHours
	row.TotalDisplay = FormatHours(stats.TotalHours)
	return row
}

// ToUser converts a database user to the session user.
func ToUser(u *database.User, isAdmin bool, gravatarURL string) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Username:    u.Username,
		IsAdmin:     isAdmin,
		GravatarURL: gravatarURL,
	}
}
