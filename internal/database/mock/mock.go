package mock

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/period"
)

var _ database.DB = (*MockDB)(nil)

type entryKey struct {
	userID uint
	date   period.Date
}

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// Entry storage
	entries map[entryKey]float64

	// Error simulation
	CreateUserError          error
	GetUserByIDError         error
	GetUserByUsernameError   error
	GetUsersWithEntriesError error
	ListUsersError           error
	CountUsersError          error
	MaterializeEntriesError  error
	GetEntriesError          error
	UpdateEntriesError       error
	SumHoursError            error
	GetEntryStatsError       error

	// Call tracking
	UpdateCalls int
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:      make(map[uint]*database.User),
		nextUserID: 1,
		entries:    make(map[entryKey]float64),
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.entries = make(map[entryKey]float64)

	m.CreateUserError = nil
	m.GetUserByIDError = nil
	m.GetUserByUsernameError = nil
	m.GetUsersWithEntriesError = nil
	m.ListUsersError = nil
	m.CountUsersError = nil
	m.MaterializeEntriesError = nil
	m.GetEntriesError = nil
	m.UpdateEntriesError = nil
	m.SumHoursError = nil
	m.GetEntryStatsError = nil
	m.UpdateCalls = 0
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return database.ErrDuplicateUsername
		}
	}

	user.ID = m.nextUserID
	m.nextUserID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	user := *u
	return &user, nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			user := *u
			return &user, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (m *MockDB) GetUsersWithEntries(ctx context.Context) ([]database.User, error) {
	if m.GetUsersWithEntriesError != nil {
		return nil, m.GetUsersWithEntriesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	owners := make(map[uint]struct{})
	for k := range m.entries {
		owners[k.userID] = struct{}{}
	}

	users := make([]database.User, 0, len(owners))
	for id := range owners {
		if u, ok := m.users[id]; ok {
			users = append(users, *u)
		}
	}
	slices.SortFunc(users, compareUsers)
	return users, nil
}

func (m *MockDB) ListUsers(ctx context.Context) ([]database.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	slices.SortFunc(users, compareUsers)
	return users, nil
}

func (m *MockDB) CountUsers(ctx context.Context) (int64, error) {
	if m.CountUsersError != nil {
		return 0, m.CountUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.users)), nil
}

// Entry operations

func (m *MockDB) MaterializeEntries(ctx context.Context, userID uint, dates []period.Date) (map[period.Date]float64, error) {
	if m.MaterializeEntriesError != nil {
		return nil, m.MaterializeEntriesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[period.Date]float64, len(dates))
	for _, d := range dates {
		k := entryKey{userID: userID, date: d}
		if _, ok := m.entries[k]; !ok {
			m.entries[k] = 0
		}
		result[d] = m.entries[k]
	}
	return result, nil
}

func (m *MockDB) GetEntries(ctx context.Context, userID uint, dates []period.Date) (map[period.Date]float64, error) {
	if m.GetEntriesError != nil {
		return nil, m.GetEntriesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[period.Date]float64, len(dates))
	for _, d := range dates {
		if h, ok := m.entries[entryKey{userID: userID, date: d}]; ok {
			result[d] = h
		}
	}
	return result, nil
}

func (m *MockDB) UpdateEntries(ctx context.Context, userID uint, values map[period.Date]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateEntriesError != nil {
		return m.UpdateEntriesError
	}

	for d, raw := range values {
		k := entryKey{userID: userID, date: d}
		if _, ok := m.entries[k]; ok {
			m.entries[k] = database.ParseHours(raw)
		}
	}
	return nil
}

func (m *MockDB) SumHours(ctx context.Context, userID uint, dates []period.Date) (float64, error) {
	if m.SumHoursError != nil {
		return 0, m.SumHoursError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	seen := make(map[period.Date]struct{}, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		total += m.entries[entryKey{userID: userID, date: d}]
	}
	return total, nil
}

func (m *MockDB) GetEntryStats(ctx context.Context, userID uint) (*database.EntryStats, error) {
	if m.GetEntryStatsError != nil {
		return nil, m.GetEntryStatsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats *database.EntryStats
	for k, h := range m.entries {
		if k.userID != userID || h == 0 {
			continue
		}
		if stats == nil {
			stats = &database.EntryStats{FirstActive: k.date, LastActive: k.date}
		}
		if k.date.Before(stats.FirstActive) {
			stats.FirstActive = k.date
		}
		if k.date.After(stats.LastActive) {
			stats.LastActive = k.date
		}
		stats.TotalHours += h
		stats.ActiveDays++
	}
	return stats, nil
}

// SetHours stores an entry directly, bypassing materialization.
func (m *MockDB) SetHours(userID uint, date period.Date, hours float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entryKey{userID: userID, date: date}] = hours
}

// EntryCount returns the number of stored entries of a user.
func (m *MockDB) EntryCount(userID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k := range m.entries {
		if k.userID == userID {
			n++
		}
	}
	return n
}

func (m *MockDB) Close() error {
	return nil
}

func compareUsers(a, b database.User) int {
	return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
}
