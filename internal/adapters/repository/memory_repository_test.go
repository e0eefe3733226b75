package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

func TestInMemoryUserRepository(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	mgr, err := domain.NewUser(uuid.NewString(), "Boss@Example.com", "Boss", domain.RoleManager, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, mgr))

	dev, err := domain.NewUser(uuid.NewString(), "dev@example.com", "Dev", domain.RoleDeveloper, mgr.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, dev))

	t.Run("duplicate email", func(t *testing.T) {
		dup, _ := domain.NewUser(uuid.NewString(), "boss@example.com", "Other", domain.RoleManager, "")
		assert.Equal(t, domain.ErrEmailAlreadyExists, repo.Create(ctx, dup))
	})

	t.Run("returns copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, dev.ID)
		require.NoError(t, err)
		got.Name = "Mutated"

		again, _ := repo.GetByID(ctx, dev.ID)
		assert.Equal(t, "Dev", again.Name)
	})

	t.Run("lists", func(t *testing.T) {
		reports, _ := repo.ListByManagerID(ctx, mgr.ID)
		require.Len(t, reports, 1)
		assert.Equal(t, dev.ID, reports[0].ID)

		managers, _ := repo.ListByRole(ctx, domain.RoleManager)
		require.Len(t, managers, 1)
		assert.Equal(t, mgr.ID, managers[0].ID)
	})

	t.Run("update keeps streaks and checks the manager", func(t *testing.T) {
		require.NoError(t, repo.UpdateStreaks(ctx, dev.ID, 2, 5))

		got, _ := repo.GetByID(ctx, dev.ID)
		require.NoError(t, got.Rename("Developer"))
		got.Preferences.RealtimeNotifications = false
		got.LogStreak = 99
		require.NoError(t, repo.Update(ctx, got))

		stored, _ := repo.GetByID(ctx, dev.ID)
		assert.Equal(t, "Developer", stored.Name)
		assert.False(t, stored.Preferences.RealtimeNotifications)
		assert.Equal(t, 2, stored.LogStreak)

		stored.ManagerID = &dev.ID
		assert.Equal(t, domain.ErrInvalidManager, repo.Update(ctx, stored))

		ghost, _ := domain.NewUser(uuid.NewString(), "ghost@example.com", "Ghost", domain.RoleManager, "")
		assert.Equal(t, domain.ErrUserNotFound, repo.Update(ctx, ghost))
	})

	t.Run("streaks and delete", func(t *testing.T) {
		require.NoError(t, repo.UpdateStreaks(ctx, dev.ID, 3, 7))
		got, _ := repo.GetByEmail(ctx, "dev@example.com")
		assert.Equal(t, 3, got.LogStreak)
		assert.Equal(t, 7, got.LongestStreak)

		require.NoError(t, repo.Delete(ctx, dev.ID))
		assert.Equal(t, domain.ErrUserNotFound, repo.Delete(ctx, dev.ID))
		assert.Equal(t, domain.ErrUserNotFound, repo.UpdateStreaks(ctx, dev.ID, 1, 1))
	})
}

func TestInMemoryWorkLogRepository(t *testing.T) {
	repo := NewInMemoryWorkLogRepository()
	ctx := context.Background()

	alice, bob := uuid.NewString(), uuid.NewString()
	d1 := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)

	a1 := newTestLog(t, alice, d1, "")
	a2 := newTestLog(t, alice, d2, "flaky CI")
	b3 := newTestLog(t, bob, d3, "")
	for _, l := range []*domain.WorkLog{a1, a2, b3} {
		require.NoError(t, repo.Create(ctx, l))
	}

	t.Run("one log per user per day", func(t *testing.T) {
		dup := newTestLog(t, alice, d1.Add(12*time.Hour), "")
		assert.Equal(t, domain.ErrLogAlreadyExists, repo.Create(ctx, dup))

		other := newTestLog(t, bob, d1, "")
		require.NoError(t, repo.Create(ctx, other))
		require.NoError(t, repo.Delete(ctx, other.ID, bob))
	})

	t.Run("get by user and day", func(t *testing.T) {
		got, err := repo.GetByUserAndDay(ctx, alice, d2.Add(10*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, a2.ID, got.ID)

		_, err = repo.GetByUserAndDay(ctx, bob, d2)
		assert.Equal(t, domain.ErrWorkLogNotFound, err)
	})

	t.Run("version conflict", func(t *testing.T) {
		stale, _ := repo.GetByID(ctx, a1.ID)
		fresh, _ := repo.GetByID(ctx, a1.ID)

		_, err := fresh.AddFeedback(bob, "nice")
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, fresh))
		assert.Equal(t, 2, fresh.Version)

		_, _ = stale.AddFeedback(bob, "late")
		assert.Equal(t, domain.ErrWorkLogConflict, repo.Update(ctx, stale))

		stored, _ := repo.GetByID(ctx, a1.ID)
		require.Len(t, stored.Feedback, 1)
		assert.Equal(t, "nice", stored.Feedback[0].Comment)
	})

	t.Run("task feedback is copied on read", func(t *testing.T) {
		got, _ := repo.GetByID(ctx, b3.ID)
		_, err := got.AddTaskFeedback(got.Tasks[0].ID, alice, "why?")
		require.NoError(t, err)

		untouched, _ := repo.GetByID(ctx, b3.ID)
		assert.Empty(t, untouched.Tasks[0].Feedback)

		require.NoError(t, repo.Update(ctx, got))
		stored, _ := repo.GetByID(ctx, b3.ID)
		require.Len(t, stored.Tasks[0].Feedback, 1)
		assert.Equal(t, "why?", stored.Tasks[0].Feedback[0].Comment)
	})

	t.Run("filter and paging", func(t *testing.T) {
		logs, total, err := repo.List(ctx, domain.LogFilter{UserIDs: []string{alice}, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, logs, 1)
		assert.Equal(t, a2.ID, logs[0].ID)

		logs, total, _ = repo.List(ctx, domain.LogFilter{UserIDs: []string{alice}, Offset: 1, Limit: 1})
		assert.Equal(t, 2, total)
		require.Len(t, logs, 1)
		assert.Equal(t, a1.ID, logs[0].ID)

		logs, total, _ = repo.List(ctx, domain.LogFilter{HasBlockers: true, Limit: 10})
		assert.Equal(t, 1, total)
		assert.Equal(t, a2.ID, logs[0].ID)

		from := d2
		logs, total, _ = repo.List(ctx, domain.LogFilter{From: &from, Limit: 10})
		assert.Equal(t, 2, total)
		assert.Equal(t, b3.ID, logs[0].ID)

		logs, total, _ = repo.List(ctx, domain.LogFilter{Offset: 50, Limit: 10})
		assert.Equal(t, 3, total)
		assert.Empty(t, logs)
	})

	t.Run("list by users is oldest first", func(t *testing.T) {
		logs, err := repo.ListByUsers(ctx, []string{alice, bob}, d1, d3)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, []string{a1.ID, a2.ID, b3.ID}, []string{logs[0].ID, logs[1].ID, logs[2].ID})

		empty, err := repo.ListByUsers(ctx, nil, d1, d3)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("dates and owner-scoped delete", func(t *testing.T) {
		dates, _ := repo.ListDates(ctx, alice)
		assert.Equal(t, []time.Time{time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}, dates)

		assert.Equal(t, domain.ErrWorkLogNotFound, repo.Delete(ctx, a1.ID, bob))
		require.NoError(t, repo.Delete(ctx, a1.ID, alice))
	})
}

func TestInMemoryTeamRepository(t *testing.T) {
	repo := NewInMemoryTeamRepository()
	ctx := context.Background()

	mgr, dev := uuid.NewString(), uuid.NewString()
	team, err := domain.NewTeam(mgr, "Payments", "", "", []string{dev})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, team))

	byMember, _ := repo.ListByMember(ctx, dev)
	require.Len(t, byMember, 1)

	byMember[0].Members = append(byMember[0].Members, "intruder")
	stored, _ := repo.GetByID(ctx, team.ID)
	assert.Equal(t, []string{dev}, stored.Members)

	require.NoError(t, stored.Update("Billing", "", "", nil, nil))
	require.NoError(t, repo.Update(ctx, stored))

	byManager, _ := repo.ListByManagerID(ctx, mgr)
	require.Len(t, byManager, 1)
	assert.Equal(t, "Billing", byManager[0].Name)

	require.NoError(t, repo.Delete(ctx, team.ID))
	assert.Equal(t, domain.ErrTeamNotFound, repo.Delete(ctx, team.ID))
	assert.Equal(t, domain.ErrTeamNotFound, repo.Update(ctx, stored))
}
