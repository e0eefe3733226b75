package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

func ptr[T any](v T) *T {
	return &v
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.User, error) {
	args := m.Called(ctx, managerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	return m.Called(ctx, id, current, longest).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockWorkLogRepository struct {
	mock.Mock
}

func (m *MockWorkLogRepository) Create(ctx context.Context, log *domain.WorkLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockWorkLogRepository) GetByID(ctx context.Context, id string) (*domain.WorkLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkLog), args.Error(1)
}

func (m *MockWorkLogRepository) GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.WorkLog, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkLog), args.Error(1)
}

func (m *MockWorkLogRepository) Update(ctx context.Context, log *domain.WorkLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockWorkLogRepository) Delete(ctx context.Context, id string, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockWorkLogRepository) List(ctx context.Context, filter domain.LogFilter) ([]*domain.WorkLog, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.WorkLog), args.Int(1), args.Error(2)
}

func (m *MockWorkLogRepository) ListByUsers(ctx context.Context, userIDs []string, from, to time.Time) ([]*domain.WorkLog, error) {
	args := m.Called(ctx, userIDs, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WorkLog), args.Error(1)
}

func (m *MockWorkLogRepository) ListDates(ctx context.Context, userID string) ([]time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *domain.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.Team, error) {
	args := m.Called(ctx, managerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Team, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) Update(ctx context.Context, team *domain.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(ctx context.Context, userID string, n services.Notification) error {
	return m.Called(ctx, userID, n).Error(0)
}

type MockStreakQueue struct {
	mock.Mock
}

func (m *MockStreakQueue) Enqueue(userID string) {
	m.Called(userID)
}

// memoryStatsCache is a map-backed StatsCache that records hits.
type memoryStatsCache struct {
	values map[string]any
	hits   int
}

func newMemoryStatsCache() *memoryStatsCache {
	return &memoryStatsCache{values: make(map[string]any)}
}

func (c *memoryStatsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	c.hits++
	switch d := dest.(type) {
	case *domain.UserStats:
		*d = *v.(*domain.UserStats)
	case *domain.TeamStats:
		*d = *v.(*domain.TeamStats)
	}
	return true, nil
}

func (c *memoryStatsCache) Set(ctx context.Context, key string, value any) error {
	c.values[key] = value
	return nil
}

func (c *memoryStatsCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

type MockStatsInvalidator struct {
	mock.Mock
}

func (m *MockStatsInvalidator) InvalidateUser(ctx context.Context, userID string, now time.Time) {
	m.Called(ctx, userID, now)
}

func developer(id, managerID string) *domain.User {
	return &domain.User{ID: id, Name: "Dev " + id, Email: id + "@devlog.test", Role: domain.RoleDeveloper, ManagerID: ptr(managerID)}
}

func manager(id string) *domain.User {
	return &domain.User{ID: id, Name: "Manager " + id, Email: id + "@devlog.test", Role: domain.RoleManager}
}
