package models

import (
	"github.com/jon4hz/khaki/internal/period"
	"github.com/jon4hz/khaki/internal/policy"
)

// User is the authenticated user stored in the gin context.
type User struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	IsAdmin     bool   `json:"isAdmin"`
	GravatarURL string `json:"gravatarUrl,omitempty"` // URL to the user's Gravatar image, empty if not available
}

// Actor returns the capability of the user for the policy checks.
func (u *User) Actor() policy.Actor {
	if u == nil {
		return policy.Actor{}
	}
	return policy.Actor{ID: u.ID, IsAdmin: u.IsAdmin}
}

// CellClass is the single visual class of a calendar day.
type CellClass string

const (
	CellHighlight CellClass = "highlight"
	CellZero      CellClass = "zero"
	CellNonzero   CellClass = "nonzero"
)

// DayCell is one cell of a month grid.
type DayCell struct {
	// Placeholder cells pad the first and last week and carry no date.
	Placeholder bool        `json:"placeholder,omitempty"`
	Date        period.Date `json:"date"`
	Day         int         `json:"day"`
	Hours       float64     `json:"hours"`
	Display     string      `json:"display"`
	Class       CellClass   `json:"class"`
	Editable    bool        `json:"editable"`
	InputName   string      `json:"inputName,omitempty"`
	// Value seeds the input of an editable cell with the exact stored hours.
	Value string `json:"value,omitempty"`
}

// MonthGrid is one calendar month laid out Monday first, seven cells per week.
type MonthGrid struct {
	Month period.Month `json:"-"`
	Key   string       `json:"month"`
	Title string       `json:"title"`
	Weeks [][]DayCell  `json:"weeks"`
}

// TargetUser is the user whose calendar is shown.
type TargetUser struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// CalendarView is everything needed to render the calendar of one user.
type CalendarView struct {
	Target        TargetUser              `json:"user"`
	Months        []MonthGrid             `json:"months"`
	Entries       map[period.Date]float64 `json:"entries"`
	Total         float64                 `json:"total"`
	TotalDisplay  string                  `json:"totalDisplay"`
	CanEdit       bool                    `json:"canEdit"`
	EditableDates []period.Date           `json:"editableDates"`
	Highlight     period.Window           `json:"highlight"`
	Editable      period.Window           `json:"editable"`
}

// UserStats is one row of the admin user list.
type UserStats struct {
	ID                 uint    `json:"id"`
	Name               string  `json:"name"`
	Username           string  `json:"username"`
	Email              string  `json:"email"`
	AvatarURL          string  `json:"avatarUrl,omitempty"`
	Initials           string  `json:"initials"`
	HasActivity        bool    `json:"hasActivity"`
	FirstActive        string  `json:"firstActive"`
	LastActive         string  `json:"lastActive"`
	LastActiveRelative string  `json:"lastActiveRelative,omitempty"`
	TotalHours         float64 `json:"totalHours"`
	TotalDisplay       string  `json:"totalDisplay"`
}

// PivotMonth is a month header spanning its day columns.
type PivotMonth struct {
	Title string `json:"title"`
	Span  int    `json:"span"`
}

// PivotCell is one user's value on one day. Blank cells still hold zero hours.
type PivotCell struct {
	Date    period.Date `json:"date"`
	Hours   float64     `json:"hours"`
	Display string      `json:"display"`
	Blank   bool        `json:"blank"`
}

// PivotRow is one user of the pivot table.
type PivotRow struct {
	UserID       uint        `json:"userId"`
	Name         string      `json:"name"`
	Username     string      `json:"username"`
	Cells        []PivotCell `json:"cells"`
	Total        float64     `json:"total"`
	TotalDisplay string      `json:"totalDisplay"`
}

// Pivot is the all-users table over the full period.
type Pivot struct {
	Months []PivotMonth  `json:"months"`
	Days   []period.Date `json:"days"`
	Rows   []PivotRow    `json:"rows"`
}

// PivotUser is the already materialized input of one pivot row.
type PivotUser struct {
	ID       uint
	Name     string
	Username string
	Entries  map[period.Date]float64
	Total    float64
}
