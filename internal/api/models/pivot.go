package models

import (
	"github.com/jon4hz/khaki/internal/period"
	"github.com/samber/lo"
)

// BuildPivot projects already materialized entries of several users into one table
// with a column per date. Zero values are blank but keep their hours.
func BuildPivot(dates []period.Date, users []PivotUser) Pivot {
	months := lo.Map(lo.PartitionBy(dates, func(d period.Date) string {
		return period.MonthOf(d).Key()
	}), func(group []period.Date, _ int) PivotMonth {
		return PivotMonth{
			Title: period.MonthOf(group[0]).String(),
			Span:  len(group),
		}
	})

	rows := make([]PivotRow, 0, len(users))
	for _, u := range users {
		cells := make([]PivotCell, len(dates))
		for i, d := range dates {
			h := u.Entries[d]
			cells[i] = PivotCell{
				Date:  d,
				Hours: h,
				Blank: h == 0,
			}
			if h != 0 {
				cells[i].Display = FormatHours(h)
			}
		}
		rows = append(rows, PivotRow{
			UserID:       u.ID,
			Name:         u.Name,
			Username:     u.Username,
			Cells:        cells,
			Total:        u.Total,
			TotalDisplay: FormatHours(u.Total),
		})
	}

	return Pivot{
		Months: months,
		Days:   dates,
		Rows:   rows,
	}
}
