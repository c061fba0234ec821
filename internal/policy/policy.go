package policy

import (
	"github.com/jon4hz/khaki/internal/period"
)

// Actor is the identity a request runs as. IsAdmin is resolved once at login
// and never derived from the username in here.
type Actor struct {
	ID      uint
	IsAdmin bool
}

// Policy decides who may edit what and when.
// It is a pure predicate layer and never touches storage.
type Policy struct {
	period period.Period
}

// New creates a policy for the given reporting period.
func New(p period.Period) *Policy {
	return &Policy{period: p}
}

// Period returns the reporting period the policy was built for.
func (p *Policy) Period() period.Period {
	return p.period
}

// IsWithinEditableWindow reports whether hours of date may be changed at all.
// The check is date based only, the admin gets no exception.
func (p *Policy) IsWithinEditableWindow(date period.Date) bool {
	return p.period.Editable.Contains(date)
}

// IsHighlighted reports whether date falls in the highlight window.
// It has no influence on edit permission.
func (p *Policy) IsHighlighted(date period.Date) bool {
	return p.period.Highlight.Contains(date)
}

// IsInPeriod reports whether date belongs to the reporting period.
func (p *Policy) IsInPeriod(date period.Date) bool {
	return p.period.Full.Contains(date)
}

// CanEdit reports whether actor may edit the entries of targetUserID.
func (p *Policy) CanEdit(actor Actor, targetUserID uint) bool {
	if actor.IsAdmin {
		return true
	}
	return actor.ID != 0 && actor.ID == targetUserID
}

// CanView reports whether actor may look at the calendar of targetUserID.
// Viewing follows the same rule as editing.
func (p *Policy) CanView(actor Actor, targetUserID uint) bool {
	return p.CanEdit(actor, targetUserID)
}
