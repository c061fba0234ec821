package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jon4hz/khaki/internal/api/models"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/database/mock"
	"github.com/jon4hz/khaki/internal/notify/email"
	"github.com/jon4hz/khaki/internal/period"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeNotifier struct {
	mu        sync.Mutex
	updates   []email.UpdateNotification
	reminders []email.ReminderNotification
	err       error
}

func (f *fakeNotifier) SendCalendarUpdated(n email.UpdateNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, n)
	return f.err
}

func (f *fakeNotifier) SendReminder(n email.ReminderNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, n)
	return f.err
}

type EngineTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *mock.MockDB
	engine   *Engine
	notifier *fakeNotifier

	admin database.User
	alice database.User
	bob   database.User
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = mock.NewMockDB()

	engine, err := New(&config.Config{
		ServerURL: "http://localhost:3003",
		Admin:     &config.AdminConfig{Username: "jocarsa"},
		Cache:     &config.CacheConfig{Type: config.CacheTypeMemory},
		Gravatar:  &config.GravatarConfig{Enabled: false},
	}, s.db)
	s.Require().NoError(err)
	engine.now = func() time.Time { return time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) }
	s.notifier = &fakeNotifier{}
	engine.notifier = s.notifier
	s.engine = engine

	s.admin = s.createUser("jocarsa", "Jose Vicente")
	s.alice = s.createUser("alice", "Alice")
	s.bob = s.createUser("bob", "Bob")
}

func (s *EngineTestSuite) TearDownTest() {
	s.Require().NoError(s.engine.Close(s.ctx))
}

func (s *EngineTestSuite) createUser(username, name string) database.User {
	u := database.User{Username: username, Name: name, Email: username + "@example.com"}
	s.Require().NoError(s.db.CreateUser(s.ctx, &u))
	return u
}

func (s *EngineTestSuite) adminActor() policy.Actor {
	return policy.Actor{ID: s.admin.ID, IsAdmin: true}
}

func (s *EngineTestSuite) actorFor(u database.User) policy.Actor {
	return policy.Actor{ID: u.ID}
}

// openCalendar materializes the period for u the way loading the page does.
func (s *EngineTestSuite) openCalendar(u database.User) {
	_, err := s.engine.CalendarView(s.ctx, s.adminActor(), u.ID)
	s.Require().NoError(err)
}

func d(v string) period.Date {
	return period.MustParseDate(v)
}

func (s *EngineTestSuite) TestCalendarView_Own() {
	view, err := s.engine.CalendarView(s.ctx, s.actorFor(s.alice), s.alice.ID)
	s.Require().NoError(err)

	s.Equal("Alice", view.Target.Name)
	s.Len(view.Months, 4)
	s.Len(view.Entries, 122)
	s.True(view.CanEdit)
	s.Equal(0.0, view.Total)
	s.Equal(122, s.db.EntryCount(s.alice.ID))
}

func (s *EngineTestSuite) TestCalendarView_Idempotent() {
	first, err := s.engine.CalendarView(s.ctx, s.actorFor(s.alice), s.alice.ID)
	s.Require().NoError(err)
	second, err := s.engine.CalendarView(s.ctx, s.actorFor(s.alice), s.alice.ID)
	s.Require().NoError(err)

	s.Equal(first.Entries, second.Entries)
	s.Equal(122, s.db.EntryCount(s.alice.ID))
}

func (s *EngineTestSuite) TestCalendarView_Permissions() {
	_, err := s.engine.CalendarView(s.ctx, s.actorFor(s.bob), s.alice.ID)
	s.ErrorIs(err, ErrForbidden)
	s.Zero(s.db.EntryCount(s.alice.ID))

	_, err = s.engine.CalendarView(s.ctx, policy.Actor{}, s.alice.ID)
	s.ErrorIs(err, ErrForbidden)

	view, err := s.engine.CalendarView(s.ctx, s.adminActor(), s.alice.ID)
	s.Require().NoError(err)
	s.True(view.CanEdit)
	s.Equal(s.alice.ID, view.Target.ID)

	_, err = s.engine.CalendarView(s.ctx, s.adminActor(), 999)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *EngineTestSuite) TestCalendarView_StorageFailure() {
	s.db.MaterializeEntriesError = errors.New("disk full")

	_, err := s.engine.CalendarView(s.ctx, s.actorFor(s.alice), s.alice.ID)
	s.ErrorIs(err, ErrStorage)
	s.Contains(err.Error(), "disk full")
}

func (s *EngineTestSuite) TestCalendarView_OutsideWindowReadOnlyForAdmin() {
	view, err := s.engine.CalendarView(s.ctx, s.adminActor(), s.alice.ID)
	s.Require().NoError(err)

	for _, m := range view.Months {
		for _, week := range m.Weeks {
			for _, c := range week {
				if c.Placeholder {
					continue
				}
				s.Equal(s.engine.Policy().IsWithinEditableWindow(c.Date), c.Editable, c.Date.String())
			}
		}
	}
}

func (s *EngineTestSuite) TestSave_Own() {
	s.openCalendar(s.alice)
	err := s.engine.Save(s.ctx, s.actorFor(s.alice), s.alice.ID, map[string]string{
		"2025-03-03":       "3,5",
		"hours_2025-04-10": "2",
		"2025-05-05":       "garbage",
	})
	s.Require().NoError(err)

	view, err := s.engine.CalendarView(s.ctx, s.actorFor(s.alice), s.alice.ID)
	s.Require().NoError(err)
	s.Equal(3.5, view.Entries[d("2025-03-03")])
	s.Equal(2.0, view.Entries[d("2025-04-10")])
	s.Equal(0.0, view.Entries[d("2025-05-05")])
	s.InDelta(5.5, view.Total, 1e-9)
	s.Equal("5.5", view.TotalDisplay)

	s.engine.notifications.Wait()
	s.Empty(s.notifier.updates)
}

func (s *EngineTestSuite) TestSave_AdminForOtherUser() {
	s.openCalendar(s.bob)
	s.Require().NoError(s.engine.Save(s.ctx, s.adminActor(), s.bob.ID, map[string]string{"2025-06-02": "7"}))

	entries, err := s.db.GetEntries(s.ctx, s.bob.ID, []period.Date{d("2025-06-02")})
	s.Require().NoError(err)
	s.Equal(7.0, entries[d("2025-06-02")])

	// the admin's own calendar is untouched
	s.Zero(s.db.EntryCount(s.admin.ID))

	s.engine.notifications.Wait()
	s.Require().Len(s.notifier.updates, 1)
	n := s.notifier.updates[0]
	s.Equal("bob@example.com", n.UserEmail)
	s.Equal("Jose Vicente", n.ChangedBy)
	s.Equal([]email.ChangedDay{{Date: "2025-06-02", Hours: "7"}}, n.Days)
	s.Equal("7", n.Total)
	s.Equal("http://localhost:3003/", n.CalendarURL)
}

func (s *EngineTestSuite) TestSave_NotificationFailureDoesNotFailSave() {
	s.notifier.err = errors.New("smtp down")
	s.openCalendar(s.bob)
	s.Require().NoError(s.engine.Save(s.ctx, s.adminActor(), s.bob.ID, map[string]string{"2025-06-02": "7"}))
	s.engine.notifications.Wait()
	s.Len(s.notifier.updates, 1)
}

func (s *EngineTestSuite) TestSave_Rejected() {
	tests := []struct {
		name   string
		actor  policy.Actor
		target uint
		edits  map[string]string
		err    error
	}{
		{
			name:   "other user",
			actor:  policy.Actor{ID: 3},
			target: 2,
			edits:  map[string]string{"2025-03-03": "1"},
			err:    ErrUnauthorizedEdit,
		},
		{
			name:   "anonymous",
			actor:  policy.Actor{},
			target: 2,
			edits:  map[string]string{"2025-03-03": "1"},
			err:    ErrUnauthorizedEdit,
		},
		{
			name:   "before window",
			actor:  policy.Actor{ID: 2},
			target: 2,
			edits:  map[string]string{"2025-03-03": "1", "2025-03-01": "1"},
			err:    ErrOutsideEditWindow,
		},
		{
			name:   "after window as admin",
			actor:  policy.Actor{ID: 1, IsAdmin: true},
			target: 2,
			edits:  map[string]string{"2025-06-14": "1"},
			err:    ErrOutsideEditWindow,
		},
		{
			name:   "outside period",
			actor:  policy.Actor{ID: 2},
			target: 2,
			edits:  map[string]string{"2025-07-01": "1"},
			err:    ErrInvalidDate,
		},
		{
			name:   "not a date",
			actor:  policy.Actor{ID: 2},
			target: 2,
			edits:  map[string]string{"tomorrow": "1"},
			err:    ErrInvalidDate,
		},
		{
			name:   "unknown target",
			actor:  policy.Actor{ID: 1, IsAdmin: true},
			target: 99,
			edits:  map[string]string{"2025-03-03": "1"},
			err:    ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.db.UpdateCalls = 0
			err := s.engine.Save(s.ctx, tt.actor, tt.target, tt.edits)
			s.ErrorIs(err, tt.err)
			s.Zero(s.db.UpdateCalls)
			s.Zero(s.db.EntryCount(s.alice.ID))
		})
	}
}

func (s *EngineTestSuite) TestSave_StorageFailureKeepsPreviousValues() {
	s.openCalendar(s.alice)
	s.Require().NoError(s.engine.Save(s.ctx, s.actorFor(s.alice), s.alice.ID, map[string]string{"2025-03-03": "1"}))

	s.db.UpdateEntriesError = errors.New("database is locked")
	err := s.engine.Save(s.ctx, s.actorFor(s.alice), s.alice.ID, map[string]string{"2025-03-03": "9", "2025-03-04": "9"})
	s.ErrorIs(err, ErrStorage)
	s.NotErrorIs(err, ErrUnauthorizedEdit)

	s.db.UpdateEntriesError = nil
	entries, err := s.db.GetEntries(s.ctx, s.alice.ID, []period.Date{d("2025-03-03"), d("2025-03-04")})
	s.Require().NoError(err)
	s.Equal(1.0, entries[d("2025-03-03")])
	s.Equal(0.0, entries[d("2025-03-04")])
}

func (s *EngineTestSuite) TestSave_NeverCreatesEntries() {
	err := s.engine.Save(s.ctx, s.actorFor(s.alice), s.alice.ID, map[string]string{"2025-03-03": "4"})
	s.ErrorIs(err, ErrNotMaterialized)
	s.Zero(s.db.UpdateCalls)
	s.Zero(s.db.EntryCount(s.alice.ID))

	// one missing date rejects the whole batch
	_, err = s.db.MaterializeEntries(s.ctx, s.alice.ID, []period.Date{d("2025-03-03")})
	s.Require().NoError(err)
	err = s.engine.Save(s.ctx, s.actorFor(s.alice), s.alice.ID, map[string]string{"2025-03-03": "4", "2025-03-04": "1"})
	s.ErrorIs(err, ErrNotMaterialized)
	s.Equal(1, s.db.EntryCount(s.alice.ID))

	entries, err := s.db.GetEntries(s.ctx, s.alice.ID, []period.Date{d("2025-03-03")})
	s.Require().NoError(err)
	s.Zero(entries[d("2025-03-03")])

	s.engine.notifications.Wait()
	s.Empty(s.notifier.updates)
}

func (s *EngineTestSuite) TestSave_Empty() {
	s.Require().NoError(s.engine.Save(s.ctx, s.actorFor(s.alice), s.alice.ID, nil))
	s.Zero(s.db.UpdateCalls)
}

func (s *EngineTestSuite) TestTotalHours() {
	total, err := s.engine.TotalHours(s.ctx, s.alice.ID, nil)
	s.Require().NoError(err)
	s.Zero(total)

	dates := []period.Date{d("2025-03-01"), d("2025-03-02")}
	s.db.SetHours(s.alice.ID, dates[0], 3.5)
	entries, err := s.db.MaterializeEntries(s.ctx, s.alice.ID, dates)
	s.Require().NoError(err)

	var sum float64
	for _, h := range entries {
		sum += h
	}
	total, err = s.engine.TotalHours(s.ctx, s.alice.ID, dates)
	s.Require().NoError(err)
	s.Equal(sum, total)
	s.Equal(3.5, total)

	s.db.SumHoursError = errors.New("boom")
	_, err = s.engine.TotalHours(s.ctx, s.alice.ID, dates)
	s.ErrorIs(err, ErrStorage)
}

func (s *EngineTestSuite) TestStatsForUser() {
	_, err := s.db.MaterializeEntries(s.ctx, s.alice.ID, []period.Date{d("2025-03-03"), d("2025-03-04")})
	s.Require().NoError(err)

	stats, err := s.engine.StatsForUser(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Nil(stats)

	s.db.SetHours(s.alice.ID, d("2025-03-04"), 2)
	stats, err = s.engine.StatsForUser(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stats)
	s.Equal(d("2025-03-04"), stats.FirstActive)
	s.Equal(d("2025-03-04"), stats.LastActive)
	s.Equal(2.0, stats.TotalHours)
}

func (s *EngineTestSuite) TestUserOverview() {
	_, err := s.engine.UserOverview(s.ctx, s.actorFor(s.alice))
	s.ErrorIs(err, ErrUnauthorizedEdit)

	s.db.SetHours(s.bob.ID, d("2025-03-03"), 0)
	s.db.SetHours(s.alice.ID, d("2025-04-01"), 4)
	s.db.SetHours(s.alice.ID, d("2025-05-01"), 1.5)

	rows, err := s.engine.UserOverview(s.ctx, s.adminActor())
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	s.Equal("Alice", rows[0].Name)
	s.Equal("2025-04-01", rows[0].FirstActive)
	s.Equal("2025-05-01", rows[0].LastActive)
	s.Equal("5.5", rows[0].TotalDisplay)
	s.NotEmpty(rows[0].LastActiveRelative)
	s.Equal("A", rows[0].Initials)

	s.Equal("Bob", rows[1].Name)
	s.Equal(models.NotAvailable, rows[1].FirstActive)
	s.Equal(models.NotAvailable, rows[1].LastActive)
	s.False(rows[1].HasActivity)

	s.db.GetEntryStatsError = errors.New("boom")
	_, err = s.engine.UserOverview(s.ctx, s.adminActor())
	s.ErrorIs(err, ErrStorage)
}

func (s *EngineTestSuite) TestSummary() {
	_, err := s.engine.Summary(s.ctx, s.actorFor(s.bob))
	s.ErrorIs(err, ErrUnauthorizedEdit)

	s.db.SetHours(s.alice.ID, d("2025-03-03"), 4)
	s.db.SetHours(s.bob.ID, d("2025-06-30"), 1)

	pivot, err := s.engine.Summary(s.ctx, s.adminActor())
	s.Require().NoError(err)
	s.Len(pivot.Months, 4)
	s.Len(pivot.Days, 122)
	s.Require().Len(pivot.Rows, 2)
	s.Equal("Alice", pivot.Rows[0].Name)
	s.Equal(4.0, pivot.Rows[0].Total)
	s.Equal("4", pivot.Rows[0].Cells[2].Display)
	s.True(pivot.Rows[0].Cells[0].Blank)

	// the summary materializes the full period for listed users only
	s.Equal(122, s.db.EntryCount(s.alice.ID))
	s.Equal(122, s.db.EntryCount(s.bob.ID))
	s.Zero(s.db.EntryCount(s.admin.ID))
}

func (s *EngineTestSuite) TestReminderWeek() {
	tests := []struct {
		today     string
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		// Monday after the first editable week
		{today: "2025-03-10", wantStart: "2025-03-03", wantEnd: "2025-03-09", wantOK: true},
		// any day of a week points at the week before
		{today: "2025-04-16", wantStart: "2025-04-07", wantEnd: "2025-04-13", wantOK: true},
		// the first week of the period starts before the window
		{today: "2025-03-05", wantStart: "2025-03-03", wantEnd: "2025-03-02", wantOK: false},
		// the last week is clipped at the end of the window
		{today: "2025-06-16", wantStart: "2025-06-09", wantEnd: "2025-06-13", wantOK: true},
		{today: "2025-06-23", wantStart: "2025-06-16", wantEnd: "2025-06-13", wantOK: false},
	}

	for _, tt := range tests {
		s.Run(tt.today, func() {
			week, ok := s.engine.ReminderWeek(d(tt.today))
			s.Equal(tt.wantOK, ok)
			s.Equal(tt.wantStart, week.Start.String())
			s.Equal(tt.wantEnd, week.End.String())
		})
	}
}

func (s *EngineTestSuite) TestSendReminders() {
	s.engine.now = func() time.Time { return time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC) }
	s.db.SetHours(s.alice.ID, d("2025-03-05"), 4)
	s.db.SetHours(s.bob.ID, d("2025-03-10"), 4) // current week does not count

	s.Require().NoError(s.engine.SendReminders(s.ctx))

	s.Require().Len(s.notifier.reminders, 1)
	r := s.notifier.reminders[0]
	s.Equal("bob@example.com", r.UserEmail)
	s.Equal("2025-03-03", r.WeekStart)
	s.Equal("2025-03-09", r.WeekEnd)
	s.Equal("Friday, 13 June 2025", r.Deadline)
}

func (s *EngineTestSuite) TestSendReminders_OutsideWindow() {
	s.Require().NoError(s.engine.SendReminders(s.ctx))
	s.Empty(s.notifier.reminders)
}

func (s *EngineTestSuite) TestSendReminders_Failures() {
	s.engine.now = func() time.Time { return time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC) }

	s.notifier.err = errors.New("smtp down")
	err := s.engine.SendReminders(s.ctx)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to send 2 of 2 reminders")

	s.notifier.err = nil
	s.db.ListUsersError = errors.New("disk I/O error")
	s.ErrorIs(s.engine.SendReminders(s.ctx), ErrStorage)
}

func (s *EngineTestSuite) TestJobs() {
	jobs, err := s.engine.Jobs(s.adminActor())
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(JobClearUserCache, jobs[0].ID)

	_, err = s.engine.Jobs(s.actorFor(s.alice))
	s.ErrorIs(err, ErrUnauthorizedEdit)

	s.ErrorIs(s.engine.RunJob(s.actorFor(s.alice), JobClearUserCache), ErrUnauthorizedEdit)
	s.ErrorIs(s.engine.RunJob(s.adminActor(), JobReminders), ErrJobNotFound)
}

func TestNew_Reminders(t *testing.T) {
	e, err := New(&config.Config{
		Email:     &config.EmailConfig{Enabled: true, SMTPHost: "smtp.example.com", FromEmail: "hours@example.com"},
		Reminders: &config.RemindersConfig{Enabled: true, Schedule: "0 9 * * 1"},
	}, mock.NewMockDB())
	require.NoError(t, err)
	defer e.Close(context.Background()) //nolint:errcheck

	jobs, err := e.Jobs(policy.Actor{IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, JobReminders, jobs[1].ID)
	assert.Equal(t, "0 9 * * 1", jobs[1].Schedule)

	_, err = New(&config.Config{
		Email:     &config.EmailConfig{Enabled: true},
		Reminders: &config.RemindersConfig{Enabled: true, Schedule: "whenever"},
	}, mock.NewMockDB())
	assert.Error(t, err)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
