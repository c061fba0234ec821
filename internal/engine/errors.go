package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorizedEdit indicates that the actor may not edit the target user's entries.
	ErrUnauthorizedEdit = errors.New("unauthorized edit")
	// ErrForbidden indicates that the actor may not view the requested data.
	ErrForbidden = errors.New("forbidden")
	// ErrOutsideEditWindow indicates that a submitted date is outside the editable window.
	ErrOutsideEditWindow = errors.New("date outside the editable window")
	// ErrInvalidDate indicates that a submitted key is not a date of the reporting period.
	ErrInvalidDate = errors.New("invalid date")
	// ErrNotMaterialized indicates that a submitted date has no entry yet, the calendar was never loaded.
	ErrNotMaterialized = errors.New("calendar not loaded for date")
	// ErrUserNotFound indicates that the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrJobNotFound indicates that no scheduled job has the requested id.
	ErrJobNotFound = errors.New("job not found")
	// ErrStorage wraps every failure of the database.
	ErrStorage = errors.New("storage failure")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
