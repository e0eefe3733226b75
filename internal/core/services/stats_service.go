package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

const (
	UserStatsWindowDays = 30
	TeamStatsWindowDays = 7
	ReportWindowDays    = 7
	MaxCalendarDays     = 366
)

type StatsService struct {
	logRepo  domain.WorkLogRepository
	userRepo domain.UserRepository
	teamRepo domain.TeamRepository
	cache    StatsCache
}

// NewStatsService builds the service. cache may be nil.
func NewStatsService(logRepo domain.WorkLogRepository, userRepo domain.UserRepository, teamRepo domain.TeamRepository, cache StatsCache) *StatsService {
	return &StatsService{
		logRepo:  logRepo,
		userRepo: userRepo,
		teamRepo: teamRepo,
		cache:    cache,
	}
}

// window returns the first and last instant of the n UTC days ending on now's day.
func window(now time.Time, days int) (time.Time, time.Time) {
	today := analytics.Day(now)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

func (s *StatsService) GetUserStats(ctx context.Context, userID string, now time.Time) (*domain.UserStats, error) {
	key := userStatsKey(userID, now)

	var cached domain.UserStats
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	from, to := window(now, UserStatsWindowDays)
	logs, err := s.logRepo.ListByUsers(ctx, []string{userID}, from, to)
	if err != nil {
		return nil, err
	}
	records := domain.ToRecords(logs)

	agg, err := analytics.ComputeAggregates(records, UserStatsWindowDays)
	if err != nil {
		return nil, err
	}

	streaks, err := s.streaksFor(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	tags, err := analytics.RankFrequencies(analytics.TagKeys(records), analytics.DefaultTopN)
	if err != nil {
		return nil, err
	}

	stats := &domain.UserStats{
		UserID:     userID,
		Period:     domain.NewPeriod(from, to, UserStatsWindowDays),
		Aggregates: agg,
		Streaks:    streaks,
		TopTags:    tags,
	}

	s.toCache(ctx, key, stats)
	return stats, nil
}

func (s *StatsService) streaksFor(ctx context.Context, userID string, now time.Time) (analytics.StreakResult, error) {
	dates, err := s.logRepo.ListDates(ctx, userID)
	if err != nil {
		return analytics.StreakResult{}, err
	}
	return analytics.ComputeStreaks(dates, now), nil
}

// GetTeamStats aggregates the last week of the team's logs. The completion
// rate is measured against one log per member per day.
func (s *StatsService) GetTeamStats(ctx context.Context, actor Actor, teamID string, now time.Time) (*domain.TeamStats, error) {
	team, err := s.visibleTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	key := teamStatsKey(teamID, now)

	var cached domain.TeamStats
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	from, to := window(now, TeamStatsWindowDays)
	windowDays := len(team.Members) * TeamStatsWindowDays

	stats := &domain.TeamStats{
		TeamID:      team.ID,
		TeamName:    team.Name,
		MemberCount: len(team.Members),
		Period:      domain.NewPeriod(from, to, windowDays),
		TopBlockers: analytics.FrequencyRanking{},
		TopTags:     analytics.FrequencyRanking{},
	}

	if len(team.Members) == 0 {
		return stats, nil
	}

	logs, err := s.logRepo.ListByUsers(ctx, team.Members, from, to)
	if err != nil {
		return nil, err
	}
	records := domain.ToRecords(logs)

	if stats.Aggregates, err = analytics.ComputeAggregates(records, windowDays); err != nil {
		return nil, err
	}
	if stats.TopBlockers, err = analytics.RankFrequencies(analytics.BlockerKeys(records), analytics.DefaultTopN); err != nil {
		return nil, err
	}
	if stats.TopTags, err = analytics.RankFrequencies(analytics.TagKeys(records), analytics.DefaultTopN); err != nil {
		return nil, err
	}

	s.toCache(ctx, key, stats)
	return stats, nil
}

func (s *StatsService) GetTimeDistribution(ctx context.Context, actor Actor, teamID string, now time.Time) (*domain.TimeDistribution, error) {
	team, err := s.visibleTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	dist := &domain.TimeDistribution{
		TeamID:  team.ID,
		Minutes: map[analytics.TaskStatus]int{},
	}
	if len(team.Members) == 0 {
		return dist, nil
	}

	from, to := window(now, UserStatsWindowDays)
	logs, err := s.logRepo.ListByUsers(ctx, team.Members, from, to)
	if err != nil {
		return nil, err
	}

	dist.Minutes = analytics.DistributeTimeByStatus(domain.ToRecords(logs))
	return dist, nil
}

// visibleTeam loads a team the actor manages or belongs to.
func (s *StatsService) visibleTeam(ctx context.Context, actor Actor, teamID string) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.CanView(actor.UserID) {
		return nil, domain.ErrUnauthorized
	}
	return team, nil
}

// GetCalendar returns one heatmap cell per logged day in [from, to] together
// with the user's streaks over their whole history.
func (s *StatsService) GetCalendar(ctx context.Context, userID string, from, to, now time.Time) (*domain.Calendar, error) {
	from, to = analytics.Day(from), analytics.Day(to)
	if from.After(to) {
		return nil, domain.ErrInvalidDate
	}
	if int(to.Sub(from).Hours()/24)+1 > MaxCalendarDays {
		return nil, domain.ErrRangeTooLarge
	}

	logs, err := s.logRepo.ListByUsers(ctx, []string{userID}, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	days := make([]domain.CalendarDay, 0, len(logs))
	for _, l := range logs {
		days = append(days, domain.CalendarDay{
			Date:        l.Date.Format(domain.DateLayout),
			Mood:        l.Mood.Score,
			Minutes:     l.TotalMinutes(),
			HasBlockers: l.HasBlockers(),
		})
	}

	streaks, err := s.streaksFor(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &domain.Calendar{Days: days, Streaks: streaks}, nil
}

// GetWeeklyReport summarises the last seven days. Its completion rate is
// measured against the days between the first and last log, both included.
func (s *StatsService) GetWeeklyReport(ctx context.Context, userID string, now time.Time) (*domain.WeeklyReport, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	from, to := window(now, ReportWindowDays)
	logs, err := s.logRepo.ListByUsers(ctx, []string{userID}, from, to)
	if err != nil {
		return nil, err
	}
	records := domain.ToRecords(logs)

	span := analytics.SpanDays(records)
	if span == 0 {
		span = 1
	}

	agg, err := analytics.ComputeAggregates(records, span)
	if err != nil {
		return nil, err
	}

	streaks, err := s.streaksFor(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	tags, err := analytics.RankFrequencies(analytics.TagKeys(records), analytics.DefaultTopN)
	if err != nil {
		return nil, err
	}

	if logs == nil {
		logs = []*domain.WorkLog{}
	}

	return &domain.WeeklyReport{
		UserID:     user.ID,
		UserName:   user.Name,
		Period:     domain.NewPeriod(from, to, span),
		Aggregates: agg,
		Streaks:    streaks,
		TopTags:    tags,
		Logs:       logs,
	}, nil
}

func userStatsKey(userID string, now time.Time) string {
	return fmt.Sprintf("stats:user:%s:%s", userID, analytics.Day(now).Format(domain.DateLayout))
}

func teamStatsKey(teamID string, now time.Time) string {
	return fmt.Sprintf("stats:team:%s:%s", teamID, analytics.Day(now).Format(domain.DateLayout))
}

// InvalidateUser drops today's cached stats of the user and of every team
// the user belongs to.
func (s *StatsService) InvalidateUser(ctx context.Context, userID string, now time.Time) {
	if s.cache == nil {
		return
	}

	keys := []string{userStatsKey(userID, now)}
	teams, err := s.teamRepo.ListByMember(ctx, userID)
	if err != nil {
		log.Printf("[CACHE] could not list teams of %s for invalidation: %v", userID, err)
	}
	for _, t := range teams {
		keys = append(keys, teamStatsKey(t.ID, now))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[CACHE] stats invalidation failed for %s: %v", userID, err)
	}
}

func (s *StatsService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Printf("[CACHE] stats read failed for %s: %v", key, err)
		return false
	}
	return hit
}

func (s *StatsService) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		log.Printf("[CACHE] stats write failed for %s: %v", key, err)
	}
}
