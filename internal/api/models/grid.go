package models

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/samber/lo"
)

// FormatHours renders an hour value without trailing zeros. Zero is shown as "0".
func FormatHours(h float64) string {
	return humanize.Ftoa(h)
}

// FormatInput renders an hour value for an input field. It keeps every digit so
// saving an untouched form writes back the stored value.
func FormatInput(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// InputName is the form field name of a date.
func InputName(d period.Date) string {
	return "hours_" + d.String()
}

// ClassFor returns the visual class of a day. The highlight window wins over the stored value.
func ClassFor(date period.Date, hours float64, pol *policy.Policy) CellClass {
	switch {
	case pol.IsHighlighted(date):
		return CellHighlight
	case hours == 0:
		return CellZero
	default:
		return CellNonzero
	}
}

// mondayOffset returns the number of leading placeholders of a Monday-first week.
func mondayOffset(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// BuildMonthGrid lays out one month as Monday-first weeks of seven cells.
// Dates missing from entries are shown as zero. A day is editable only if canEdit
// holds for the viewer and the date is inside the editable window.
func BuildMonthGrid(month period.Month, entries map[period.Date]float64, canEdit bool, pol *policy.Policy) MonthGrid {
	days := month.Days()
	first := month.FirstDay()
	lead := mondayOffset(first.Weekday())

	cells := make([]DayCell, 0, lead+days+6)
	for range lead {
		cells = append(cells, DayCell{Placeholder: true})
	}
	for i := range days {
		date := first.AddDays(i)
		hours := entries[date]
		cell := DayCell{
			Date:     date,
			Day:      date.Day,
			Hours:    hours,
			Display:  FormatHours(hours),
			Class:    ClassFor(date, hours, pol),
			Editable: canEdit && pol.IsWithinEditableWindow(date),
		}
		if cell.Editable {
			cell.InputName = InputName(date)
			cell.Value = FormatInput(hours)
		}
		cells = append(cells, cell)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, DayCell{Placeholder: true})
	}

	return MonthGrid{
		Month: month,
		Key:   month.Key(),
		Title: month.String(),
		Weeks: lo.Chunk(cells, 7),
	}
}

// BuildCalendarView projects the materialized entries of a user into month grids.
// The total is supplied by the caller and never recomputed here.
func BuildCalendarView(target TargetUser, months []period.Month, entries map[period.Date]float64, total float64, canEdit bool, pol *policy.Policy) CalendarView {
	grids := lo.Map(months, func(m period.Month, _ int) MonthGrid {
		return BuildMonthGrid(m, entries, canEdit, pol)
	})

	editable := []period.Date{}
	if canEdit {
		editable = lo.Filter(period.MonthsToDates(months), func(d period.Date, _ int) bool {
			return pol.IsWithinEditableWindow(d)
		})
	}

	p := pol.Period()
	return CalendarView{
		Target:        target,
		Months:        grids,
		Entries:       entries,
		Total:         total,
		TotalDisplay:  FormatHours(total),
		CanEdit:       canEdit,
		EditableDates: editable,
		Highlight:     p.Highlight,
		Editable:      p.Editable,
	}
}
