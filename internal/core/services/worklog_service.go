package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type WorkLogService struct {
	repo     domain.WorkLogRepository
	userRepo domain.UserRepository
	teamRepo domain.TeamRepository
	streaks  StreakQueue
	notifier Notifier
	stats    StatsInvalidator
}

func NewWorkLogService(repo domain.WorkLogRepository, userRepo domain.UserRepository, teamRepo domain.TeamRepository, streaks StreakQueue, notifier Notifier) *WorkLogService {
	return &WorkLogService{
		repo:     repo,
		userRepo: userRepo,
		teamRepo: teamRepo,
		streaks:  streaks,
		notifier: notifier,
	}
}

// WithStatsInvalidator makes log writes drop the author's cached stats.
func (s *WorkLogService) WithStatsInvalidator(inv StatsInvalidator) *WorkLogService {
	s.stats = inv
	return s
}

func (s *WorkLogService) invalidateStats(ctx context.Context, userID string) {
	if s.stats != nil {
		s.stats.InvalidateUser(ctx, userID, time.Now().UTC())
	}
}

type TaskInput struct {
	Description string
	Hours       int
	Minutes     int
	Tags        []string
	Status      analytics.TaskStatus
}

type CreateLogInput struct {
	UserID    string
	Date      time.Time
	Tasks     []TaskInput
	MoodScore int
	MoodEmoji string
	Blockers  string
	Summary   string
}

// UpdateLogInput carries a partial revision: nil Tasks, zero MoodScore and nil
// text pointers keep the stored values.
type UpdateLogInput struct {
	ID        string
	UserID    string
	Tasks     []TaskInput
	MoodScore int
	MoodEmoji string
	Blockers  *string
	Summary   *string
	Version   int
}

type ListLogsInput struct {
	UserID      string
	From        *time.Time
	To          *time.Time
	Status      domain.ReviewStatus
	HasBlockers bool
	Page        int
	Limit       int
}

type LogPage struct {
	Logs       []*domain.WorkLog `json:"logs"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

func buildTasks(inputs []TaskInput) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, len(inputs))
	for _, in := range inputs {
		task, err := domain.NewTask(in.Description, in.Hours, in.Minutes, in.Tags, in.Status)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *WorkLogService) Create(ctx context.Context, input CreateLogInput) (*domain.WorkLog, error) {
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if analytics.Day(date).After(analytics.Day(time.Now().UTC())) {
		return nil, domain.ErrInvalidDate
	}

	tasks, err := buildTasks(input.Tasks)
	if err != nil {
		return nil, err
	}

	mood, err := domain.NewMood(input.MoodScore, input.MoodEmoji)
	if err != nil {
		return nil, err
	}

	wl, err := domain.NewWorkLog(input.UserID, date, tasks, mood, input.Blockers, input.Summary)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUserAndDay(ctx, wl.UserID, wl.Date); err == nil {
		return nil, domain.ErrLogAlreadyExists
	} else if !errors.Is(err, domain.ErrWorkLogNotFound) {
		return nil, fmt.Errorf("worklog service: failed to check existing log: %w", err)
	}

	if err := s.repo.Create(ctx, wl); err != nil {
		return nil, err
	}

	s.streaks.Enqueue(wl.UserID)
	s.invalidateStats(ctx, wl.UserID)

	if author.ManagerID != nil {
		s.notify(ctx, *author.ManagerID, NewNotification(
			NotifyNewLog,
			fmt.Sprintf("%s submitted a new work log", author.Name),
			map[string]string{"log_id": wl.ID, "user_id": author.ID},
		))
	}

	return wl, nil
}

func (s *WorkLogService) List(ctx context.Context, actor Actor, input ListLogsInput) (*LogPage, error) {
	page, limit := input.Page, input.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if page < 1 || limit < 1 || limit > MaxPageSize {
		return nil, domain.ErrInvalidPaging
	}
	if input.From != nil && input.To != nil && input.From.After(*input.To) {
		return nil, domain.ErrInvalidDate
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, domain.ErrInvalidReviewStatus
	}

	visible, err := s.visibleUserIDs(ctx, actor, input.UserID)
	if err != nil {
		return nil, err
	}

	result := &LogPage{Logs: []*domain.WorkLog{}, Page: page, Limit: limit}
	if len(visible) == 0 {
		return result, nil
	}

	logs, total, err := s.repo.List(ctx, domain.LogFilter{
		UserIDs:     visible,
		From:        input.From,
		To:          input.To,
		Status:      input.Status,
		HasBlockers: input.HasBlockers,
		Offset:      (page - 1) * limit,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	result.Logs = logs
	result.Total = total
	result.TotalPages = (total + limit - 1) / limit
	return result, nil
}

// visibleUserIDs resolves the owners whose logs the actor may list, narrowed to
// a single owner when one is requested.
func (s *WorkLogService) visibleUserIDs(ctx context.Context, actor Actor, requested string) ([]string, error) {
	if !actor.IsManager() {
		if requested != "" && requested != actor.UserID {
			return nil, domain.ErrUnauthorized
		}
		return []string{actor.UserID}, nil
	}

	managed, err := managedUserIDs(ctx, s.userRepo, s.teamRepo, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("worklog service: %w", err)
	}

	if requested != "" {
		if !managed[requested] {
			return nil, domain.ErrUnauthorized
		}
		return []string{requested}, nil
	}

	return sortedKeys(managed), nil
}

func (s *WorkLogService) GetByID(ctx context.Context, actor Actor, id string) (*domain.WorkLog, error) {
	wl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wl.UserID == actor.UserID {
		return wl, nil
	}
	if !actor.IsManager() {
		return nil, domain.ErrUnauthorized
	}

	if err := s.checkManages(ctx, actor.UserID, wl.UserID); err != nil {
		return nil, err
	}
	return wl, nil
}

func (s *WorkLogService) checkManages(ctx context.Context, managerID, userID string) error {
	managed, err := managedUserIDs(ctx, s.userRepo, s.teamRepo, managerID)
	if err != nil {
		return fmt.Errorf("worklog service: %w", err)
	}
	if !managed[userID] {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *WorkLogService) Update(ctx context.Context, input UpdateLogInput) (*domain.WorkLog, error) {
	wl, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if wl.UserID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	if input.Version > 0 && wl.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrWorkLogConflict, input.Version, wl.Version)
	}

	tasks := wl.Tasks
	if input.Tasks != nil {
		tasks, err = buildTasks(input.Tasks)
		if err != nil {
			return nil, err
		}
	}

	mood := wl.Mood
	if input.MoodScore != 0 {
		mood, err = domain.NewMood(input.MoodScore, input.MoodEmoji)
		if err != nil {
			return nil, err
		}
	}

	blockers := wl.Blockers
	if input.Blockers != nil {
		blockers = *input.Blockers
	}

	summary := wl.Summary
	if input.Summary != nil {
		summary = *input.Summary
	}

	if err := wl.Revise(tasks, mood, blockers, summary); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, wl); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, wl.UserID)

	return wl, nil
}

func (s *WorkLogService) Review(ctx context.Context, actor Actor, id string, status domain.ReviewStatus) (*domain.WorkLog, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	wl, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := wl.Review(actor.UserID, status); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, wl); err != nil {
		return nil, err
	}

	s.notify(ctx, wl.UserID, NewNotification(
		NotifyLogReviewed,
		fmt.Sprintf("Your log for %s was marked %s", wl.Date.Format(domain.DateLayout), status),
		map[string]string{"log_id": wl.ID, "status": string(status)},
	))

	return wl, nil
}

func (s *WorkLogService) AddFeedback(ctx context.Context, actor Actor, id string, comment string) (*domain.WorkLog, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	wl, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fb, err := wl.AddFeedback(actor.UserID, comment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, wl); err != nil {
		return nil, err
	}

	s.notify(ctx, wl.UserID, NewNotification(
		NotifyLogFeedback,
		"You received feedback on your work log",
		map[string]string{"log_id": wl.ID, "comment": fb.Comment},
	))

	return wl, nil
}

// ReviewTask sets the review status of one task inside a visible log.
func (s *WorkLogService) ReviewTask(ctx context.Context, actor Actor, logID, taskID string, status domain.ReviewStatus) (*domain.WorkLog, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	wl, err := s.GetByID(ctx, actor, logID)
	if err != nil {
		return nil, err
	}

	if err := wl.ReviewTask(taskID, status); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, wl); err != nil {
		return nil, err
	}

	s.notify(ctx, wl.UserID, NewNotification(
		NotifyLogReviewed,
		fmt.Sprintf("A task in your log for %s was marked %s", wl.Date.Format(domain.DateLayout), status),
		map[string]string{"log_id": wl.ID, "task_id": taskID, "status": string(status)},
	))

	return wl, nil
}

func (s *WorkLogService) AddTaskFeedback(ctx context.Context, actor Actor, logID, taskID, comment string) (*domain.WorkLog, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	wl, err := s.GetByID(ctx, actor, logID)
	if err != nil {
		return nil, err
	}

	fb, err := wl.AddTaskFeedback(taskID, actor.UserID, comment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, wl); err != nil {
		return nil, err
	}

	s.notify(ctx, wl.UserID, NewNotification(
		NotifyLogFeedback,
		"You received feedback on a task",
		map[string]string{"log_id": wl.ID, "task_id": taskID, "comment": fb.Comment},
	))

	return wl, nil
}

func (s *WorkLogService) Delete(ctx context.Context, id string, userID string) error {
	wl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if wl.UserID != userID {
		return domain.ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.streaks.Enqueue(userID)
	s.invalidateStats(ctx, userID)
	return nil
}

func (s *WorkLogService) notify(ctx context.Context, userID string, n Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyUser(ctx, userID, n); err != nil {
		log.Printf("[NOTIFY] failed to deliver %s to %s: %v", n.Type, userID, err)
	}
}
