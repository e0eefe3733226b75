package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

var _ domain.UserRepository = (*PostgresUserRepository)(nil)

const userColumns = `id, email, name, password_hash, role, manager_id, team,
	email_notifications, realtime_notifications, log_streak, longest_streak,
	last_active, created_at, updated_at`

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

func scanUser(row scannable) (*domain.User, error) {
	var user domain.User
	var managerID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&managerID,
		&user.Team,
		&user.Preferences.EmailNotifications,
		&user.Preferences.RealtimeNotifications,
		&user.LogStreak,
		&user.LongestStreak,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if managerID.Valid {
		user.ManagerID = &managerID.String
	}
	return &user, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.ManagerID,
		user.Team,
		user.Preferences.EmailNotifications,
		user.Preferences.RealtimeNotifications,
		user.LogStreak,
		user.LongestStreak,
		user.LastActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return domain.ErrEmailAlreadyExists
		case pgForeignKeyViolation:
			return domain.ErrInvalidManager
		}
		return fmt.Errorf("repository: create user failed: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get user failed: %w", err)
	}

	return user, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *PostgresUserRepository) list(ctx context.Context, where string, arg any) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("repository: list users failed: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: user row scan failed: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *PostgresUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.list(ctx, "role = $1", role)
}

func (r *PostgresUserRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.User, error) {
	return r.list(ctx, "manager_id = $1", managerID)
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		UPDATE users
		SET name = $1, password_hash = $2, manager_id = $3, team = $4,
			email_notifications = $5, realtime_notifications = $6, updated_at = $7
		WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.PasswordHash,
		user.ManagerID,
		user.Team,
		user.Preferences.EmailNotifications,
		user.Preferences.RealtimeNotifications,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.ErrInvalidManager
		}
		return fmt.Errorf("repository: update user failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	query := `
		UPDATE users
		SET log_streak = $1, longest_streak = $2, last_active = NOW(), updated_at = NOW()
		WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, current, longest, id)
	if err != nil {
		return fmt.Errorf("repository: update streaks failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete user failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
