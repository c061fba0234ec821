package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jon4hz/khaki/internal/period"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

// DB is the persistence layer of khaki.
type DB interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUsersWithEntries(ctx context.Context) ([]User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int64, error)

	MaterializeEntries(ctx context.Context, userID uint, dates []period.Date) (map[period.Date]float64, error)
	GetEntries(ctx context.Context, userID uint, dates []period.Date) (map[period.Date]float64, error)
	UpdateEntries(ctx context.Context, userID uint, values map[period.Date]string) error
	SumHours(ctx context.Context, userID uint, dates []period.Date) (float64, error)
	GetEntryStats(ctx context.Context, userID uint) (*EntryStats, error)

	Close() error
}

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New creates a new database connection and performs migrations.
func New(dbpath string) (*Client, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbpath)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql database: %w", err)
	}
	// sqlite only allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&User{},
		&Entry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
