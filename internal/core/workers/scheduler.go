package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

const (
	DefaultReminderSpec      = "0 22 * * *"
	DefaultWeeklySummarySpec = "0 20 * * 0"

	// StreakRefreshSpec runs just after UTC midnight, when yesterday's
	// missing log first breaks a streak.
	StreakRefreshSpec = "5 0 * * *"

	jobTimeout = 5 * time.Minute
)

type ReportSource interface {
	GetWeeklyReport(ctx context.Context, userID string, now time.Time) (*domain.WeeklyReport, error)
	GetTeamStats(ctx context.Context, actor services.Actor, teamID string, now time.Time) (*domain.TeamStats, error)
}

// DigestRenderer turns digest data into an HTML body.
type DigestRenderer interface {
	RenderWeeklyReport(report *domain.WeeklyReport) (string, error)
	RenderTeamDigest(stats []*domain.TeamStats) (string, error)
}

// StreakRefresher recomputes the streaks stored on a user.
type StreakRefresher interface {
	Recompute(ctx context.Context, userID string) error
}

type SchedulerDeps struct {
	Users    domain.UserRepository
	Logs     domain.WorkLogRepository
	Teams    domain.TeamRepository
	Reports  ReportSource
	Notifier services.Notifier
	Renderer DigestRenderer
	Streaks  StreakRefresher
}

type Scheduler struct {
	cron *cron.Cron
	deps SchedulerDeps
	now  func() time.Time
}

// NewScheduler registers the daily reminder and the weekly digest. Both specs
// are standard five-field cron expressions evaluated in UTC.
func NewScheduler(reminderSpec, weeklySpec string, deps SchedulerDeps) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		deps: deps,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if _, err := s.cron.AddFunc(reminderSpec, s.job("daily reminders", s.SendDailyReminders)); err != nil {
		return nil, fmt.Errorf("scheduler: invalid reminder spec %q: %w", reminderSpec, err)
	}
	if _, err := s.cron.AddFunc(weeklySpec, s.job("weekly digest", s.SendWeeklyDigests)); err != nil {
		return nil, fmt.Errorf("scheduler: invalid weekly summary spec %q: %w", weeklySpec, err)
	}
	if deps.Streaks != nil {
		if _, err := s.cron.AddFunc(StreakRefreshSpec, s.job("streak refresh", s.RefreshStreaks)); err != nil {
			return nil, fmt.Errorf("scheduler: invalid streak refresh spec: %w", err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[SCHEDULER] started with %d jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) job(name string, fn func(ctx context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := fn(ctx)
		if err != nil {
			log.Printf("[SCHEDULER] %s failed after %d users: %v", name, n, err)
			return
		}
		log.Printf("[SCHEDULER] %s done for %d users", name, n)
	}
}

// SendDailyReminders notifies developers who have not filed a log today.
func (s *Scheduler) SendDailyReminders(ctx context.Context) (int, error) {
	devs, err := s.deps.Users.ListByRole(ctx, domain.RoleDeveloper)
	if err != nil {
		return 0, err
	}

	today := analytics.Day(s.now())
	sent := 0

	for _, dev := range devs {
		if !dev.Preferences.RealtimeNotifications {
			continue
		}

		_, err := s.deps.Logs.GetByUserAndDay(ctx, dev.ID, today)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrWorkLogNotFound) {
			log.Printf("[SCHEDULER] could not check today's log for %s: %v", dev.ID, err)
			continue
		}

		enabled, err := s.remindersEnabled(ctx, dev.ID)
		if err != nil {
			log.Printf("[SCHEDULER] could not load teams for %s: %v", dev.ID, err)
			continue
		}
		if !enabled {
			continue
		}

		n := services.NewNotification(
			services.NotifyLogReminder,
			"Don't forget to submit your daily work log!",
			map[string]string{"date": today.Format(domain.DateLayout)},
		)
		if err := s.deps.Notifier.NotifyUser(ctx, dev.ID, n); err != nil {
			log.Printf("[SCHEDULER] reminder to %s failed: %v", dev.ID, err)
			continue
		}
		sent++
	}

	return sent, nil
}

// RefreshStreaks recomputes every developer's stored streak so that a
// developer who stopped logging no longer reports a live streak.
func (s *Scheduler) RefreshStreaks(ctx context.Context) (int, error) {
	devs, err := s.deps.Users.ListByRole(ctx, domain.RoleDeveloper)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, dev := range devs {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if err := s.deps.Streaks.Recompute(ctx, dev.ID); err != nil {
			log.Printf("[SCHEDULER] streak refresh for %s failed: %v", dev.ID, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// remindersEnabled is false only when every team the developer belongs to
// has switched automatic reminders off.
func (s *Scheduler) remindersEnabled(ctx context.Context, userID string) (bool, error) {
	teams, err := s.deps.Teams.ListByMember(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(teams) == 0 {
		return true, nil
	}
	for _, t := range teams {
		if t.Settings.AutoReminders {
			return true, nil
		}
	}
	return false, nil
}

// SendWeeklyDigests sends developers their weekly report and managers the
// aggregate of every team they own.
func (s *Scheduler) SendWeeklyDigests(ctx context.Context) (int, error) {
	now := s.now()
	sent := 0

	devs, err := s.deps.Users.ListByRole(ctx, domain.RoleDeveloper)
	if err != nil {
		return 0, err
	}
	for _, dev := range devs {
		if !dev.Preferences.EmailNotifications {
			continue
		}
		if err := s.sendDeveloperDigest(ctx, dev, now); err != nil {
			log.Printf("[SCHEDULER] digest for %s failed: %v", dev.ID, err)
			continue
		}
		sent++
	}

	managers, err := s.deps.Users.ListByRole(ctx, domain.RoleManager)
	if err != nil {
		return sent, err
	}
	for _, mgr := range managers {
		if !mgr.Preferences.EmailNotifications {
			continue
		}
		ok, err := s.sendManagerDigest(ctx, mgr, now)
		if err != nil {
			log.Printf("[SCHEDULER] team digest for %s failed: %v", mgr.ID, err)
			continue
		}
		if ok {
			sent++
		}
	}

	return sent, nil
}

func (s *Scheduler) sendDeveloperDigest(ctx context.Context, dev *domain.User, now time.Time) error {
	report, err := s.deps.Reports.GetWeeklyReport(ctx, dev.ID, now)
	if err != nil {
		return err
	}

	n := services.NewNotification(services.NotifyWeeklySummary, "Your weekly work summary is ready", report.Aggregates)
	if s.deps.Renderer != nil {
		if n.HTML, err = s.deps.Renderer.RenderWeeklyReport(report); err != nil {
			return err
		}
	}

	return s.deps.Notifier.NotifyUser(ctx, dev.ID, n)
}

func (s *Scheduler) sendManagerDigest(ctx context.Context, mgr *domain.User, now time.Time) (bool, error) {
	teams, err := s.deps.Teams.ListByManagerID(ctx, mgr.ID)
	if err != nil {
		return false, err
	}
	if len(teams) == 0 {
		return false, nil
	}

	actor := services.Actor{UserID: mgr.ID, Role: mgr.Role}
	stats := make([]*domain.TeamStats, 0, len(teams))
	for _, t := range teams {
		ts, err := s.deps.Reports.GetTeamStats(ctx, actor, t.ID, now)
		if err != nil {
			return false, err
		}
		stats = append(stats, ts)
	}

	n := services.NewNotification(services.NotifyWeeklySummary, "Your teams' weekly summary is ready", stats)
	if s.deps.Renderer != nil {
		if n.HTML, err = s.deps.Renderer.RenderTeamDigest(stats); err != nil {
			return false, err
		}
	}

	return true, s.deps.Notifier.NotifyUser(ctx, mgr.ID, n)
}
