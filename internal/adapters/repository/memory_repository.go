package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

// The in-memory repositories back STORAGE=memory and the HTTP tests. They hand
// out copies so callers cannot mutate stored state without going through Update.

type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.ManagerID != nil {
		id := *u.ManagerID
		c.ManagerID = &id
	}
	return &c
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}

	r.store[user.ID] = cloneUser(user)
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.store {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) filter(keep func(*domain.User) bool) []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*domain.User{}
	for _, u := range r.store {
		if keep(u) {
			users = append(users, cloneUser(u))
		}
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})
	return users
}

func (r *InMemoryUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool { return u.Role == role }), nil
}

func (r *InMemoryUserRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool { return u.ManagedBy(managerID) }), nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}

	if user.ManagerID != nil {
		mgr, ok := r.store[*user.ManagerID]
		if !ok || mgr.Role != domain.RoleManager {
			return domain.ErrInvalidManager
		}
	}

	c := cloneUser(user)
	c.LogStreak, c.LongestStreak = stored.LogStreak, stored.LongestStreak
	r.store[user.ID] = c
	return nil
}

func (r *InMemoryUserRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.store[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.UpdateStreak(current, longest)
	u.LastActive = u.UpdatedAt
	return nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.store, id)
	return nil
}

type InMemoryWorkLogRepository struct {
	store map[string]*domain.WorkLog

	mu sync.RWMutex
}

func NewInMemoryWorkLogRepository() *InMemoryWorkLogRepository {
	return &InMemoryWorkLogRepository{
		store: make(map[string]*domain.WorkLog),
	}
}

func cloneLog(l *domain.WorkLog) *domain.WorkLog {
	c := *l
	c.Tasks = make([]domain.Task, len(l.Tasks))
	for i, t := range l.Tasks {
		t.Tags = append([]string(nil), t.Tags...)
		t.Feedback = append([]domain.Feedback{}, t.Feedback...)
		c.Tasks[i] = t
	}
	c.Feedback = append([]domain.Feedback{}, l.Feedback...)
	return &c
}

func (r *InMemoryWorkLogRepository) Create(ctx context.Context, l *domain.WorkLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := analytics.Day(l.Date)
	for _, existing := range r.store {
		if existing.UserID == l.UserID && existing.Date.Equal(day) {
			return domain.ErrLogAlreadyExists
		}
	}

	l.Date = day
	l.Version = 1
	r.store[l.ID] = cloneLog(l)
	return nil
}

func (r *InMemoryWorkLogRepository) GetByID(ctx context.Context, id string) (*domain.WorkLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.store[id]
	if !ok {
		return nil, domain.ErrWorkLogNotFound
	}
	return cloneLog(l), nil
}

func (r *InMemoryWorkLogRepository) GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.WorkLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target := analytics.Day(day)
	for _, l := range r.store {
		if l.UserID == userID && l.Date.Equal(target) {
			return cloneLog(l), nil
		}
	}
	return nil, domain.ErrWorkLogNotFound
}

func (r *InMemoryWorkLogRepository) Update(ctx context.Context, l *domain.WorkLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[l.ID]
	if !ok {
		return domain.ErrWorkLogNotFound
	}

	if l.Version != existing.Version {
		return domain.ErrWorkLogConflict
	}

	l.Version++
	l.UpdatedAt = time.Now().UTC()

	r.store[l.ID] = cloneLog(l)
	return nil
}

func (r *InMemoryWorkLogRepository) Delete(ctx context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.store[id]
	if !ok || l.UserID != userID {
		return domain.ErrWorkLogNotFound
	}
	delete(r.store, id)
	return nil
}

func matchesFilter(l *domain.WorkLog, f domain.LogFilter, owners map[string]bool) bool {
	if len(owners) > 0 && !owners[l.UserID] {
		return false
	}
	if f.From != nil && l.Date.Before(analytics.Day(*f.From)) {
		return false
	}
	if f.To != nil && l.Date.After(analytics.Day(*f.To)) {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.HasBlockers && strings.TrimSpace(l.Blockers) == "" {
		return false
	}
	return true
}

func (r *InMemoryWorkLogRepository) List(ctx context.Context, f domain.LogFilter) ([]*domain.WorkLog, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make(map[string]bool, len(f.UserIDs))
	for _, id := range f.UserIDs {
		owners[id] = true
	}

	matched := []*domain.WorkLog{}
	for _, l := range r.store {
		if matchesFilter(l, f, owners) {
			matched = append(matched, cloneLog(l))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].Date.After(matched[j].Date)
	})

	total := len(matched)
	if f.Offset >= total {
		return []*domain.WorkLog{}, total, nil
	}

	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (r *InMemoryWorkLogRepository) ListByUsers(ctx context.Context, userIDs []string, from, to time.Time) ([]*domain.WorkLog, error) {
	if len(userIDs) == 0 {
		return []*domain.WorkLog{}, nil
	}

	logs, _, err := r.List(ctx, domain.LogFilter{UserIDs: userIDs, From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Date.Equal(logs[j].Date) {
			return logs[i].UserID < logs[j].UserID
		}
		return logs[i].Date.Before(logs[j].Date)
	})
	return logs, nil
}

func (r *InMemoryWorkLogRepository) ListDates(ctx context.Context, userID string) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dates := []time.Time{}
	for _, l := range r.store {
		if l.UserID == userID {
			dates = append(dates, l.Date)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

type InMemoryTeamRepository struct {
	store map[string]*domain.Team

	mu sync.RWMutex
}

func NewInMemoryTeamRepository() *InMemoryTeamRepository {
	return &InMemoryTeamRepository{
		store: make(map[string]*domain.Team),
	}
}

func cloneTeam(t *domain.Team) *domain.Team {
	c := *t
	c.Members = append([]string{}, t.Members...)
	return &c
}

func (r *InMemoryTeamRepository) Create(ctx context.Context, t *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[t.ID] = cloneTeam(t)
	return nil
}

func (r *InMemoryTeamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.store[id]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return cloneTeam(t), nil
}

func (r *InMemoryTeamRepository) filter(keep func(*domain.Team) bool) []*domain.Team {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := []*domain.Team{}
	for _, t := range r.store {
		if keep(t) {
			teams = append(teams, cloneTeam(t))
		}
	}

	sort.Slice(teams, func(i, j int) bool {
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
	return teams
}

func (r *InMemoryTeamRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.Team, error) {
	return r.filter(func(t *domain.Team) bool { return t.ManagerID == managerID }), nil
}

func (r *InMemoryTeamRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Team, error) {
	return r.filter(func(t *domain.Team) bool { return t.HasMember(userID) }), nil
}

func (r *InMemoryTeamRepository) Update(ctx context.Context, t *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[t.ID]; !ok {
		return domain.ErrTeamNotFound
	}
	r.store[t.ID] = cloneTeam(t)
	return nil
}

func (r *InMemoryTeamRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return domain.ErrTeamNotFound
	}
	delete(r.store, id)
	return nil
}
