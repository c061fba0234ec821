package period

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// Month is a calendar month of a specific year.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month d belongs to.
func MonthOf(d Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

func (m Month) String() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Key returns the month in YYYY-MM form.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FirstDay returns the first day of the month.
func (m Month) FirstDay() Date {
	return DateOf(now.With(time.Date(m.Year, m.Month, 1, 12, 0, 0, 0, time.UTC)).BeginningOfMonth())
}

// LastDay returns the last day of the month, honouring month length and leap years.
func (m Month) LastDay() Date {
	return DateOf(now.With(time.Date(m.Year, m.Month, 1, 12, 0, 0, 0, time.UTC)).EndOfMonth())
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.LastDay().Day
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(NewDate(m.Year, m.Month+1, 1))
}
