package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

type TokenIssuer interface {
	GenerateToken(userID string, role domain.Role) (string, error)
}

type AuthService struct {
	repo   domain.UserRepository
	tokens TokenIssuer
}

func NewAuthService(repo domain.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	Role      domain.Role
	ManagerID string
	Team      string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Role == "" {
		input.Role = domain.RoleDeveloper
	}

	user, err := domain.NewUser(uuid.NewString(), input.Email, input.Name, input.Role, input.ManagerID)
	if err != nil {
		return nil, err
	}
	user.Team = input.Team

	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if user.ManagerID != nil {
		manager, err := s.repo.GetByID(ctx, *user.ManagerID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrInvalidManager
			}
			return nil, fmt.Errorf("auth service: failed to load manager: %w", err)
		}
		if !manager.IsManager() {
			return nil, domain.ErrInvalidManager
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth service: failed to create user: %w", err)
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth service: failed to load user: %w", err)
	}

	if err := user.CheckPassword(input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}
