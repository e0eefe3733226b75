package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

type UserService struct {
	repo     domain.UserRepository
	logRepo  domain.WorkLogRepository
	teamRepo domain.TeamRepository
}

func NewUserService(repo domain.UserRepository, logRepo domain.WorkLogRepository, teamRepo domain.TeamRepository) *UserService {
	return &UserService{
		repo:     repo,
		logRepo:  logRepo,
		teamRepo: teamRepo,
	}
}

// ManagerSummary is the public view of a manager, enough to pick one at sign-up.
type ManagerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PreferencesInput carries a partial preference update: nil keeps the stored value.
type PreferencesInput struct {
	EmailNotifications    *bool
	RealtimeNotifications *bool
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

type ReassignInput struct {
	DeveloperID  string
	NewManagerID string
	Team         string
}

// UserStreaks is the streak view of a single developer, derived from the log dates.
type UserStreaks struct {
	UserID string `json:"user_id"`
	analytics.StreakResult
}

func (s *UserService) ListManagers(ctx context.Context) ([]ManagerSummary, error) {
	managers, err := s.repo.ListByRole(ctx, domain.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("user service: failed to list managers: %w", err)
	}

	out := make([]ManagerSummary, 0, len(managers))
	for _, m := range managers {
		out = append(out, ManagerSummary{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

// ListTeam returns the direct reports of the calling manager.
func (s *UserService) ListTeam(ctx context.Context, actor Actor) ([]*domain.User, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}
	return s.repo.ListByManagerID(ctx, actor.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Rename(name); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID string, input PreferencesInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.EmailNotifications != nil {
		user.Preferences.EmailNotifications = *input.EmailNotifications
	}
	if input.RealtimeNotifications != nil {
		user.Preferences.RealtimeNotifications = *input.RealtimeNotifications
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(input.CurrentPassword, input.NewPassword); err != nil {
		return err
	}

	return s.repo.Update(ctx, user)
}

// Reassign moves one of the caller's direct reports under another manager.
// Developers the caller does not manage are reported as not found.
func (s *UserService) Reassign(ctx context.Context, actor Actor, input ReassignInput) (*domain.User, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	dev, err := s.repo.GetByID(ctx, input.DeveloperID)
	if err != nil {
		return nil, err
	}
	if dev.Role != domain.RoleDeveloper || !dev.ManagedBy(actor.UserID) {
		return nil, domain.ErrUserNotFound
	}

	newManagerID := strings.TrimSpace(input.NewManagerID)
	mgr, err := s.repo.GetByID(ctx, newManagerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidManager
		}
		return nil, fmt.Errorf("user service: failed to load manager: %w", err)
	}
	if !mgr.IsManager() {
		return nil, domain.ErrInvalidManager
	}

	team := input.Team
	if team == "" {
		team = dev.Team
	}
	if err := dev.AssignManager(mgr.ID, team); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// GetStreaks is open to the user themself and to managers who can see them.
func (s *UserService) GetStreaks(ctx context.Context, actor Actor, userID string, now time.Time) (*UserStreaks, error) {
	if userID != actor.UserID {
		if !actor.IsManager() {
			return nil, domain.ErrUnauthorized
		}
		managed, err := managedUserIDs(ctx, s.repo, s.teamRepo, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("user service: %w", err)
		}
		if !managed[userID] {
			return nil, domain.ErrUnauthorized
		}
	}

	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	dates, err := s.logRepo.ListDates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user service: failed to list log dates: %w", err)
	}

	return &UserStreaks{
		UserID:       userID,
		StreakResult: analytics.ComputeStreaks(dates, now),
	}, nil
}
