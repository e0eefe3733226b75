package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

// Fakes embed the repository interfaces and override only what the scheduler calls.

type fakeUsers struct {
	domain.UserRepository
	byRole map[domain.Role][]*domain.User
}

func (f *fakeUsers) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return f.byRole[role], nil
}

type fakeLogs struct {
	domain.WorkLogRepository
	filed  map[string]bool
	broken map[string]bool
}

func (f *fakeLogs) GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.WorkLog, error) {
	if f.broken[userID] {
		return nil, errors.New("connection refused")
	}
	if f.filed[userID] {
		return &domain.WorkLog{UserID: userID, Date: day}, nil
	}
	return nil, domain.ErrWorkLogNotFound
}

type fakeTeams struct {
	domain.TeamRepository
	teams []*domain.Team
}

func (f *fakeTeams) ListByMember(ctx context.Context, userID string) ([]*domain.Team, error) {
	var out []*domain.Team
	for _, t := range f.teams {
		if t.HasMember(userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeams) ListByManagerID(ctx context.Context, managerID string) ([]*domain.Team, error) {
	var out []*domain.Team
	for _, t := range f.teams {
		if t.ManagerID == managerID {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUser(ctx context.Context, userID string, n services.Notification) error {
	return m.Called(ctx, userID, n).Error(0)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) GetWeeklyReport(ctx context.Context, userID string, now time.Time) (*domain.WeeklyReport, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WeeklyReport), args.Error(1)
}

func (m *mockReports) GetTeamStats(ctx context.Context, actor services.Actor, teamID string, now time.Time) (*domain.TeamStats, error) {
	args := m.Called(ctx, actor, teamID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamStats), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Recompute(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type stubRenderer struct{}

func (stubRenderer) RenderWeeklyReport(r *domain.WeeklyReport) (string, error) {
	return "<p>" + r.UserName + "</p>", nil
}

func (stubRenderer) RenderTeamDigest(stats []*domain.TeamStats) (string, error) {
	return "<p>teams</p>", nil
}

func user(id string, role domain.Role, realtime, email bool) *domain.User {
	return &domain.User{
		ID:   id,
		Name: id,
		Role: role,
		Preferences: domain.Preferences{
			RealtimeNotifications: realtime,
			EmailNotifications:    email,
		},
	}
}

var schedulerNow = time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("not a cron", DefaultWeeklySummarySpec, SchedulerDeps{})
	assert.Error(t, err)

	_, err = NewScheduler(DefaultReminderSpec, "61 * * * *", SchedulerDeps{})
	assert.Error(t, err)

	s, err := NewScheduler(DefaultReminderSpec, DefaultWeeklySummarySpec, SchedulerDeps{})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)

	s, err = NewScheduler(DefaultReminderSpec, DefaultWeeklySummarySpec, SchedulerDeps{Streaks: new(mockRefresher)})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)
}

func TestScheduler_RefreshStreaks(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("Recompute", mock.Anything, "dev-1").Return(nil).Once()
	refresher.On("Recompute", mock.Anything, "dev-2").Return(errors.New("boom")).Once()
	refresher.On("Recompute", mock.Anything, "dev-3").Return(nil).Once()

	s, err := NewScheduler(DefaultReminderSpec, DefaultWeeklySummarySpec, SchedulerDeps{
		Users: &fakeUsers{byRole: map[domain.Role][]*domain.User{
			domain.RoleDeveloper: {
				user("dev-1", domain.RoleDeveloper, true, true),
				user("dev-2", domain.RoleDeveloper, true, true),
				user("dev-3", domain.RoleDeveloper, false, false),
			},
			domain.RoleManager: {user("mgr-1", domain.RoleManager, true, true)},
		}},
		Streaks: refresher,
	})
	require.NoError(t, err)

	refreshed, err := s.RefreshStreaks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	refresher.AssertExpectations(t)
	refresher.AssertNotCalled(t, "Recompute", mock.Anything, "mgr-1")
}

func TestScheduler_RefreshStreaks_ClearsStaleStreak(t *testing.T) {
	stale := &domain.User{ID: "dev-idle", Role: domain.RoleDeveloper, LogStreak: 1, LongestStreak: 1}

	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "dev-idle").Return(stale, nil)
	users.On("UpdateStreaks", mock.Anything, "dev-idle", 0, 1).Return(nil).Once()

	dates := new(mockDateRepo)
	dates.On("ListDates", mock.Anything, "dev-idle").Return([]time.Time{schedulerNow.AddDate(0, 0, -5)}, nil)

	worker := NewStreakWorker(users, dates)
	worker.now = func() time.Time { return schedulerNow }

	s, err := NewScheduler(DefaultReminderSpec, DefaultWeeklySummarySpec, SchedulerDeps{
		Users:   &fakeUsers{byRole: map[domain.Role][]*domain.User{domain.RoleDeveloper: {stale}}},
		Streaks: worker,
	})
	require.NoError(t, err)

	refreshed, err := s.RefreshStreaks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
	users.AssertExpectations(t)
}

func TestScheduler_SendDailyReminders(t *testing.T) {
	quiet := &domain.Team{ID: "t-quiet", ManagerID: "mgr", Members: []string{"dev-quiet"}, Settings: domain.TeamSettings{AutoReminders: false}}
	loud := &domain.Team{ID: "t-loud", ManagerID: "mgr", Members: []string{"dev-late"}, Settings: domain.DefaultTeamSettings()}

	notifier := new(mockNotifier)
	notifier.On("NotifyUser", mock.Anything, "dev-late", mock.MatchedBy(func(n services.Notification) bool {
		return n.Type == services.NotifyLogReminder
	})).Return(nil).Once()
	notifier.On("NotifyUser", mock.Anything, "dev-solo", mock.Anything).Return(nil).Once()

	s, err := NewScheduler(DefaultReminderSpec, DefaultWeeklySummarySpec, SchedulerDeps{
		Users: &fakeUsers{byRole: map[domain.Role][]*domain.User{
			domain.RoleDeveloper: {
				user("dev-late", domain.RoleDeveloper, true, true),
				user("dev-done", domain.RoleDeveloper, true, true),
				user("dev-muted", domain.RoleDeveloper, false, true),
				user("dev-quiet", domain.RoleDeveloper, true, true),
				user("dev-solo", domain.RoleDeveloper, true, true),
				user("dev-unknown", domain.RoleDeveloper, true, true),
			},
		}},
		Logs:     &fakeLogs{filed: map[string]bool{"dev-done": true}, broken: map[string]bool{"dev-unknown": true}},
		Teams:    &fakeTeams{teams: []*domain.Team{quiet, loud}},
		Notifier: notifier,
	})
	require.NoError(t, err)
	s.now = func() time.Time { return schedulerNow }

	sent, err := s.SendDailyReminders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	notifier.AssertExpectations(t)
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, "dev-unknown", mock.Anything)
}

func TestScheduler_SendWeeklyDigests(t *testing.T) {
	team := &domain.Team{ID: "t1", ManagerID: "mgr-1", Members: []string{"dev-1"}}

	reports := new(mockReports)
	reports.On("GetWeeklyReport", mock.Anything, "dev-1", schedulerNow).Return(&domain.WeeklyReport{
		UserID:     "dev-1",
		UserName:   "Dev One",
		Aggregates: analytics.AggregateStats{TotalLogs: 5},
	}, nil)
	reports.On("GetTeamStats", mock.Anything, services.Actor{UserID: "mgr-1", Role: domain.RoleManager}, "t1", schedulerNow).
		Return(&domain.TeamStats{TeamID: "t1"}, nil)

	notifier := new(mockNotifier)
	notifier.On("NotifyUser", mock.Anything, "dev-1", mock.MatchedBy(func(n services.Notification) bool {
		return n.Type == services.NotifyWeeklySummary && n.HTML == "<p>Dev One</p>"
	})).Return(nil).Once()
	notifier.On("NotifyUser", mock.Anything, "mgr-1", mock.MatchedBy(func(n services.Notification) bool {
		return n.HTML == "<p>teams</p>"
	})).Return(nil).Once()

	s, err := NewScheduler(DefaultReminderSpec, DefaultWeeklySummarySpec, SchedulerDeps{
		Users: &fakeUsers{byRole: map[domain.Role][]*domain.User{
			domain.RoleDeveloper: {
				user("dev-1", domain.RoleDeveloper, true, true),
				user("dev-optout", domain.RoleDeveloper, true, false),
			},
			domain.RoleManager: {
				user("mgr-1", domain.RoleManager, true, true),
				user("mgr-noteams", domain.RoleManager, true, true),
			},
		}},
		Teams:    &fakeTeams{teams: []*domain.Team{team}},
		Reports:  reports,
		Notifier: notifier,
		Renderer: stubRenderer{},
	})
	require.NoError(t, err)
	s.now = func() time.Time { return schedulerNow }

	sent, err := s.SendWeeklyDigests(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	notifier.AssertExpectations(t)
	reports.AssertNotCalled(t, "GetWeeklyReport", mock.Anything, "dev-optout", mock.Anything)
}
