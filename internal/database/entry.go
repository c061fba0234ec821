package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqlite caps the number of bound variables per statement.
const queryChunkSize = 500

// Entry is the hour record of one user on one calendar day.
// There is at most one entry per (user, date). Entries are never deleted.
type Entry struct {
	ID     uint        `gorm:"primaryKey"`
	UserID uint        `gorm:"not null;uniqueIndex:idx_calendars_user_date"`
	Date   period.Date `gorm:"type:text;not null;uniqueIndex:idx_calendars_user_date"`
	Hours  float64     `gorm:"not null;default:0"`
}

// TableName overrides the table name used by Entry.
func (Entry) TableName() string {
	return "calendars"
}

// EntryStats summarizes the active days of a user.
type EntryStats struct {
	FirstActive period.Date
	LastActive  period.Date
	TotalHours  float64
	ActiveDays  int64
}

// ParseHours normalizes a raw hour value.
// A comma is accepted as decimal separator. Anything that does not parse to a
// finite number yields 0.
func ParseHours(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// MaterializeEntries creates a zero entry for every date the user does not have yet
// and returns the hours of exactly the requested dates.
func (c *Client) MaterializeEntries(ctx context.Context, userID uint, dates []period.Date) (map[period.Date]float64, error) {
	dates = lo.Uniq(dates)
	if len(dates) == 0 {
		return map[period.Date]float64{}, nil
	}

	entries := lo.Map(dates, func(d period.Date, _ int) Entry {
		return Entry{UserID: userID, Date: d}
	})

	if err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		CreateInBatches(&entries, queryChunkSize).Error; err != nil {
		log.Error("failed to materialize entries", "user_id", userID, "error", err)
		return nil, err
	}

	stored, err := c.GetEntries(ctx, userID, dates)
	if err != nil {
		return nil, err
	}

	result := make(map[period.Date]float64, len(dates))
	for _, d := range dates {
		result[d] = stored[d]
	}
	return result, nil
}

// GetEntries returns the stored hours of the requested dates. Dates without an entry are absent.
func (c *Client) GetEntries(ctx context.Context, userID uint, dates []period.Date) (map[period.Date]float64, error) {
	result := make(map[period.Date]float64, len(dates))
	for _, chunk := range lo.Chunk(dates, queryChunkSize) {
		var entries []Entry
		if err := c.db.WithContext(ctx).
			Where("user_id = ? AND date IN ?", userID, chunk).
			Find(&entries).Error; err != nil {
			log.Error("failed to get entries", "user_id", userID, "error", err)
			return nil, err
		}
		for _, e := range entries {
			result[e.Date] = e.Hours
		}
	}
	return result, nil
}

// UpdateEntries writes all values of one save in a single transaction.
// Only existing entries are updated; no entry is created.
func (c *Client) UpdateEntries(ctx context.Context, userID uint, values map[period.Date]string) error {
	if len(values) == 0 {
		return nil
	}

	dates := lo.Keys(values)
	slices.SortFunc(dates, period.Date.Compare)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range dates {
			res := tx.Model(&Entry{}).
				Where("user_id = ? AND date = ?", userID, d).
				Update("hours", ParseHours(values[d]))
			if res.Error != nil {
				return fmt.Errorf("failed to update entry %s: %w", d, res.Error)
			}
			if res.RowsAffected == 0 {
				log.Debug("skipping entry that was never materialized", "user_id", userID, "date", d)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to update entries", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// SumHours returns the sum of the user's hours over the given dates.
func (c *Client) SumHours(ctx context.Context, userID uint, dates []period.Date) (float64, error) {
	var total float64
	for _, chunk := range lo.Chunk(lo.Uniq(dates), queryChunkSize) {
		var sum sql.NullFloat64
		if err := c.db.WithContext(ctx).
			Model(&Entry{}).
			Select("SUM(hours)").
			Where("user_id = ? AND date IN ?", userID, chunk).
			Scan(&sum).Error; err != nil {
			log.Error("failed to sum hours", "user_id", userID, "error", err)
			return 0, err
		}
		total += sum.Float64
	}
	return total, nil
}

// GetEntryStats returns the first and last active day and the total hours of a user.
// It returns nil if the user has no entry with nonzero hours.
func (c *Client) GetEntryStats(ctx context.Context, userID uint) (*EntryStats, error) {
	var row struct {
		FirstActive sql.NullString
		LastActive  sql.NullString
		TotalHours  sql.NullFloat64
		ActiveDays  int64
	}
	if err := c.db.WithContext(ctx).
		Model(&Entry{}).
		Select("MIN(date) AS first_active, MAX(date) AS last_active, SUM(hours) AS total_hours, COUNT(*) AS active_days").
		Where("user_id = ? AND hours != 0", userID).
		Scan(&row).Error; err != nil {
		log.Error("failed to get entry stats", "user_id", userID, "error", err)
		return nil, err
	}

	if row.ActiveDays == 0 || !row.FirstActive.Valid || !row.LastActive.Valid {
		return nil, nil
	}

	first, err := period.ParseDate(row.FirstActive.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", row.FirstActive.String, err)
	}
	last, err := period.ParseDate(row.LastActive.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", row.LastActive.String, err)
	}

	return &EntryStats{
		FirstActive: first,
		LastActive:  last,
		TotalHours:  row.TotalHours.Float64,
		ActiveDays:  row.ActiveDays,
	}, nil
}
