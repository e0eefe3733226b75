package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

func TestTeamService_Create(t *testing.T) {
	ctx := context.Background()
	mgr := services.Actor{UserID: "mgr-1", Role: domain.RoleManager}

	tests := []struct {
		name        string
		actor       services.Actor
		input       services.CreateTeamInput
		setup       func(users *MockUserRepository, teams *MockTeamRepository)
		expectedErr error
	}{
		{
			name:  "Success",
			actor: mgr,
			input: services.CreateTeamInput{Name: "Platform", Members: []string{"dev-1"}},
			setup: func(users *MockUserRepository, teams *MockTeamRepository) {
				users.On("GetByID", ctx, "dev-1").Return(developer("dev-1", "mgr-1"), nil)
				teams.On("Create", ctx, mock.AnythingOfType("*domain.Team")).Return(nil)
			},
		},
		{
			name:        "Developer cannot create",
			actor:       services.Actor{UserID: "dev-1", Role: domain.RoleDeveloper},
			input:       services.CreateTeamInput{Name: "Platform"},
			setup:       func(*MockUserRepository, *MockTeamRepository) {},
			expectedErr: domain.ErrForbiddenRole,
		},
		{
			name:  "Member must be a developer",
			actor: mgr,
			input: services.CreateTeamInput{Name: "Platform", Members: []string{"mgr-2"}},
			setup: func(users *MockUserRepository, teams *MockTeamRepository) {
				users.On("GetByID", ctx, "mgr-2").Return(manager("mgr-2"), nil)
			},
			expectedErr: domain.ErrInvalidMembers,
		},
		{
			name:  "Member must exist",
			actor: mgr,
			input: services.CreateTeamInput{Name: "Platform", Members: []string{"ghost"}},
			setup: func(users *MockUserRepository, teams *MockTeamRepository) {
				users.On("GetByID", ctx, "ghost").Return(nil, domain.ErrUserNotFound)
			},
			expectedErr: domain.ErrInvalidMembers,
		},
		{
			name:        "Empty name",
			actor:       mgr,
			input:       services.CreateTeamInput{Name: " "},
			setup:       func(*MockUserRepository, *MockTeamRepository) {},
			expectedErr: domain.ErrTeamNameEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			teams := new(MockTeamRepository)
			tt.setup(users, teams)

			service := services.NewTeamService(teams, users)
			team, err := service.Create(ctx, tt.actor, tt.input)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, team)
				teams.AssertNotCalled(t, "Create")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "mgr-1", team.ManagerID)
			teams.AssertExpectations(t)
		})
	}
}

func TestTeamService_AccessRules(t *testing.T) {
	ctx := context.Background()
	team := &domain.Team{ID: "team-1", Name: "Platform", ManagerID: "mgr-1", Members: []string{"dev-1"}, Settings: domain.DefaultTeamSettings()}

	t.Run("Members can view", func(t *testing.T) {
		teams := new(MockTeamRepository)
		teams.On("GetByID", ctx, "team-1").Return(team, nil)
		service := services.NewTeamService(teams, new(MockUserRepository))

		got, err := service.GetByID(ctx, services.Actor{UserID: "dev-1", Role: domain.RoleDeveloper}, "team-1")
		require.NoError(t, err)
		assert.Equal(t, "Platform", got.Name)
	})

	t.Run("Outsiders cannot view", func(t *testing.T) {
		teams := new(MockTeamRepository)
		teams.On("GetByID", ctx, "team-1").Return(team, nil)
		service := services.NewTeamService(teams, new(MockUserRepository))

		_, err := service.GetByID(ctx, services.Actor{UserID: "dev-5", Role: domain.RoleDeveloper}, "team-1")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Only the owning manager deletes", func(t *testing.T) {
		teams := new(MockTeamRepository)
		teams.On("GetByID", ctx, "team-1").Return(team, nil)
		service := services.NewTeamService(teams, new(MockUserRepository))

		err := service.Delete(ctx, services.Actor{UserID: "mgr-2", Role: domain.RoleManager}, "team-1")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		teams.AssertNotCalled(t, "Delete")
	})

	t.Run("List dispatches on role", func(t *testing.T) {
		teams := new(MockTeamRepository)
		teams.On("ListByManagerID", ctx, "mgr-1").Return([]*domain.Team{team}, nil)
		teams.On("ListByMember", ctx, "dev-1").Return([]*domain.Team{team}, nil)
		service := services.NewTeamService(teams, new(MockUserRepository))

		_, err := service.List(ctx, services.Actor{UserID: "mgr-1", Role: domain.RoleManager})
		require.NoError(t, err)
		_, err = service.List(ctx, services.Actor{UserID: "dev-1", Role: domain.RoleDeveloper})
		require.NoError(t, err)

		teams.AssertExpectations(t)
	})
}

func TestTeamService_Update(t *testing.T) {
	ctx := context.Background()
	mgr := services.Actor{UserID: "mgr-1", Role: domain.RoleManager}

	t.Run("Merges fields and validates new members", func(t *testing.T) {
		team, _ := domain.NewTeam("mgr-1", "Platform", "infra", "eng", []string{"dev-1"})
		teams := new(MockTeamRepository)
		users := new(MockUserRepository)
		teams.On("GetByID", ctx, team.ID).Return(team, nil)
		teams.On("Update", ctx, team).Return(nil)
		users.On("GetByID", ctx, "dev-2").Return(developer("dev-2", "mgr-1"), nil)

		settings := domain.DefaultTeamSettings()
		settings.LogSubmissionDeadline = "19:00"

		service := services.NewTeamService(teams, users)
		updated, err := service.Update(ctx, mgr, services.UpdateTeamInput{
			ID:       team.ID,
			Members:  []string{"dev-2"},
			Settings: &settings,
		})

		require.NoError(t, err)
		assert.Equal(t, "Platform", updated.Name)
		assert.Equal(t, "infra", updated.Description)
		assert.Equal(t, []string{"dev-2"}, updated.Members)
		assert.Equal(t, "19:00", updated.Settings.LogSubmissionDeadline)
	})

	t.Run("Bad deadline", func(t *testing.T) {
		team, _ := domain.NewTeam("mgr-1", "Platform", "", "", nil)
		teams := new(MockTeamRepository)
		teams.On("GetByID", ctx, team.ID).Return(team, nil)

		settings := domain.DefaultTeamSettings()
		settings.LogSubmissionDeadline = "7pm"

		service := services.NewTeamService(teams, new(MockUserRepository))
		_, err := service.Update(ctx, mgr, services.UpdateTeamInput{ID: team.ID, Settings: &settings})

		assert.ErrorIs(t, err, domain.ErrInvalidDeadline)
		teams.AssertNotCalled(t, "Update")
	})
}
