package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, id string) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)

	// ListByRole returns every user with the given role, used by scheduled jobs.
	ListByRole(ctx context.Context, role Role) ([]*User, error)

	// ListByManagerID returns the developers reporting to a manager.
	ListByManagerID(ctx context.Context, managerID string) ([]*User, error)

	// Update persists profile, password, manager and preference changes.
	Update(ctx context.Context, user *User) error

	UpdateStreaks(ctx context.Context, id string, current, longest int) error

	Delete(ctx context.Context, id string) error
}

// LogFilter scopes a work-log listing. Empty UserIDs means no owner filter,
// which callers must never pass through for non-admin requests.
type LogFilter struct {
	UserIDs     []string
	From        *time.Time
	To          *time.Time
	Status      ReviewStatus
	HasBlockers bool
	Offset      int
	Limit       int
}

type WorkLogRepository interface {
	// Create persists a new log.
	// Implementations must reject a second log for the same user and UTC day with ErrLogAlreadyExists.
	Create(ctx context.Context, log *WorkLog) error

	GetByID(ctx context.Context, id string) (*WorkLog, error)

	// GetByUserAndDay returns the log a user filed on the UTC day of the given time.
	GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*WorkLog, error)

	// Update modifies an existing log.
	// Implementations must handle Optimistic Locking (version check) and bump the version.
	Update(ctx context.Context, log *WorkLog) error

	// Delete removes a log, scoped to its owner.
	Delete(ctx context.Context, id string, userID string) error

	// List returns one page of logs matching the filter, newest first, plus the total match count.
	List(ctx context.Context, filter LogFilter) ([]*WorkLog, int, error)

	// ListByUsers returns every log of the given users within [from, to], oldest first.
	ListByUsers(ctx context.Context, userIDs []string, from, to time.Time) ([]*WorkLog, error)

	// ListDates returns the dates of every log a user has filed.
	ListDates(ctx context.Context, userID string) ([]time.Time, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error

	GetByID(ctx context.Context, id string) (*Team, error)

	ListByManagerID(ctx context.Context, managerID string) ([]*Team, error)

	// ListByMember returns the teams a developer belongs to.
	ListByMember(ctx context.Context, userID string) ([]*Team, error)

	Update(ctx context.Context, team *Team) error

	Delete(ctx context.Context, id string) error
}
