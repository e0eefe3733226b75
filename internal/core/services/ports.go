package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   domain.Role
}

func (a Actor) IsManager() bool {
	return a.Role == domain.RoleManager
}

type NotificationType string

const (
	NotifyNewLog        NotificationType = "new_log"
	NotifyLogFeedback   NotificationType = "log_feedback"
	NotifyLogReviewed   NotificationType = "log_reviewed"
	NotifyLogReminder   NotificationType = "log_reminder"
	NotifyWeeklySummary NotificationType = "weekly_summary"
)

type Notification struct {
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Data      any              `json:"data,omitempty"`
	HTML      string           `json:"html,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewNotification(t NotificationType, message string, data any) Notification {
	return Notification{
		Type:      t,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier delivers a notification to every live session of a user.
// Delivery is best effort: callers log failures and move on.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, n Notification) error
}

// StreakQueue schedules an asynchronous streak recomputation for a user.
type StreakQueue interface {
	Enqueue(userID string)
}

// StatsCache stores computed stats for a short time. A miss returns false with no error.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// StatsInvalidator drops cached stats that a change to a user's logs makes stale.
type StatsInvalidator interface {
	InvalidateUser(ctx context.Context, userID string, now time.Time)
}
