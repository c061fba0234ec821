package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
