// Package period defines the fixed reporting period and generates the date sequences
// the calendar views are built from.
package period

import "time"

// Window is a closed range of dates.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether start <= d <= end.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Dates returns every date of the window.
func (w Window) Dates() []Date {
	return SpanToDates(w.Start, w.End)
}

// Period groups the date windows of a reporting period.
// Editable and Highlight are independent: a date can be in either, both or neither.
type Period struct {
	// Full is the date universe entries exist for.
	Full Window
	// Editable is the window inside which hours may be changed.
	Editable Window
	// Highlight is used for presentation only.
	Highlight Window
}

// Default is the reporting period of the application.
var Default = Period{
	Full: Window{
		Start: NewDate(2025, time.March, 1),
		End:   NewDate(2025, time.June, 30),
	},
	Editable: Window{
		Start: NewDate(2025, time.March, 3),
		End:   NewDate(2025, time.June, 13),
	},
	Highlight: Window{
		Start: NewDate(2025, time.June, 1),
		End:   NewDate(2025, time.June, 13),
	},
}

// Months returns the whole months covered by the full window.
func (p Period) Months() []Month {
	return MonthsBetween(p.Full.Start, p.Full.End)
}

// Dates returns every date of the full window.
func (p Period) Dates() []Date {
	return p.Full.Dates()
}
