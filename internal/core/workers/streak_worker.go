package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateStreaks(ctx context.Context, id string, current, longest int) error
}

type LogDateRepository interface {
	ListDates(ctx context.Context, userID string) ([]time.Time, error)
}

type StreakJob struct {
	UserID string
}

// StreakWorker recomputes a user's streaks off the request path after their
// logs change.
type StreakWorker struct {
	userRepo UserRepository
	logRepo  LogDateRepository
	jobs     chan StreakJob
	now      func() time.Time
}

func NewStreakWorker(uRepo UserRepository, lRepo LogDateRepository) *StreakWorker {
	return &StreakWorker{
		userRepo: uRepo,
		logRepo:  lRepo,
		jobs:     make(chan StreakJob, 100),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *StreakWorker) Start(ctx context.Context) {
	go func() {
		log.Println("[WORKER] Streak Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("[WORKER] Streak Worker shutting down...")
				return
			}
		}
	}()
}

func (w *StreakWorker) Enqueue(userID string) {
	select {
	case w.jobs <- StreakJob{UserID: userID}:
	default:
		log.Printf("[WORKER] Streak queue full! Dropping job for user %s", userID)
	}
}

func (w *StreakWorker) processJob(ctx context.Context, job StreakJob) {
	if err := w.Recompute(ctx, job.UserID); err != nil {
		log.Printf("[WORKER] %v", err)
	}
}

// Recompute refreshes the streaks stored on a user from their log dates.
// Nothing is written when the stored values are already current.
func (w *StreakWorker) Recompute(ctx context.Context, userID string) error {
	user, err := w.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching user %s: %w", userID, err)
	}

	dates, err := w.logRepo.ListDates(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching log dates for %s: %w", userID, err)
	}

	streaks := analytics.ComputeStreaks(dates, w.now())

	if user.LogStreak == streaks.CurrentStreak && user.LongestStreak == streaks.MaxStreak {
		return nil
	}

	if err := w.userRepo.UpdateStreaks(ctx, user.ID, streaks.CurrentStreak, streaks.MaxStreak); err != nil {
		return fmt.Errorf("failed to update streak for %s: %w", userID, err)
	}
	log.Printf("[WORKER] Streak updated for %s: Current=%d, Longest=%d", user.Email, streaks.CurrentStreak, streaks.MaxStreak)
	return nil
}
