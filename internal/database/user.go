package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User represents an account in the database.
// It explicitly doesn't track if a user is an admin.
// The admin status is always determined during the login process and stored in the session.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Entries      []Entry `gorm:"constraint:OnDelete:CASCADE;"`
}

// TableName overrides the table name used by User.
func (User) TableName() string {
	return "users"
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error("failed to get user by ID", "error", err)
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error("failed to get user by username", "error", err)
		return nil, err
	}
	return &user, nil
}

// GetUsersWithEntries returns every user that owns at least one calendar entry, ordered by name.
func (c *Client) GetUsersWithEntries(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).
		Where("id IN (?)", c.db.Model(&Entry{}).Select("user_id")).
		Order("name ASC").Order("id ASC").
		Find(&users).Error; err != nil {
		log.Error("failed to get users with entries", "error", err)
		return nil, err
	}
	return users, nil
}

// ListUsers returns every registered user ordered by name.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&users).Error; err != nil {
		log.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

func (c *Client) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&n).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return n, nil
}
