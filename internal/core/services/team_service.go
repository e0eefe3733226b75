package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

type TeamService struct {
	repo     domain.TeamRepository
	userRepo domain.UserRepository
}

func NewTeamService(repo domain.TeamRepository, userRepo domain.UserRepository) *TeamService {
	return &TeamService{
		repo:     repo,
		userRepo: userRepo,
	}
}

type CreateTeamInput struct {
	Name        string
	Description string
	Department  string
	Members     []string
}

type UpdateTeamInput struct {
	ID          string
	Name        string
	Description string
	Department  string
	Members     []string
	Settings    *domain.TeamSettings
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *TeamService) Create(ctx context.Context, actor Actor, input CreateTeamInput) (*domain.Team, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	team, err := domain.NewTeam(actor.UserID, input.Name, input.Description, input.Department, input.Members)
	if err != nil {
		return nil, err
	}

	if err := s.validateMembers(ctx, team.Members); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

func (s *TeamService) List(ctx context.Context, actor Actor) ([]*domain.Team, error) {
	if actor.IsManager() {
		return s.repo.ListByManagerID(ctx, actor.UserID)
	}
	return s.repo.ListByMember(ctx, actor.UserID)
}

func (s *TeamService) GetByID(ctx context.Context, actor Actor, id string) (*domain.Team, error) {
	team, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !team.CanView(actor.UserID) {
		return nil, domain.ErrUnauthorized
	}
	return team, nil
}

func (s *TeamService) Update(ctx context.Context, actor Actor, input UpdateTeamInput) (*domain.Team, error) {
	team, err := s.ownedTeam(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Members != nil {
		if err := s.validateMembers(ctx, input.Members); err != nil {
			return nil, err
		}
	}

	err = team.Update(
		mergeString(input.Name, team.Name),
		mergeString(input.Description, team.Description),
		mergeString(input.Department, team.Department),
		input.Members,
		input.Settings,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

func (s *TeamService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.ownedTeam(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TeamService) ownedTeam(ctx context.Context, actor Actor, id string) (*domain.Team, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbiddenRole
	}

	team, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if team.ManagerID != actor.UserID {
		return nil, domain.ErrUnauthorized
	}
	return team, nil
}

func (s *TeamService) validateMembers(ctx context.Context, members []string) error {
	for _, id := range members {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrInvalidMembers, id)
			}
			return fmt.Errorf("team service: failed to load member %s: %w", id, err)
		}
		if u.Role != domain.RoleDeveloper {
			return fmt.Errorf("%w: %s", domain.ErrInvalidMembers, id)
		}
	}
	return nil
}
