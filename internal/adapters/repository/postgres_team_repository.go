package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

var _ domain.TeamRepository = (*PostgresTeamRepository)(nil)

const teamColumns = `id, name, manager_id, members, description, department, settings, created_at, updated_at`

type PostgresTeamRepository struct {
	db *sqlx.DB
}

func NewPostgresTeamRepository(db *sqlx.DB) *PostgresTeamRepository {
	return &PostgresTeamRepository{db: db}
}

func scanTeam(row scannable) (*domain.Team, error) {
	var t domain.Team
	var settings []byte

	err := row.Scan(
		&t.ID, &t.Name, &t.ManagerID, pq.Array(&t.Members),
		&t.Description, &t.Department, &settings,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(settings, &t.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team settings: %w", err)
	}
	if t.Members == nil {
		t.Members = []string{}
	}

	return &t, nil
}

func (r *PostgresTeamRepository) Create(ctx context.Context, t *domain.Team) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal team settings: %w", err)
	}

	query := `INSERT INTO teams (` + teamColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.ManagerID, pq.Array(t.Members),
		t.Description, t.Department, settings,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.ErrTeamInvalidUserID
		}
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

func (r *PostgresTeamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)

	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return t, nil
}

func (r *PostgresTeamRepository) list(ctx context.Context, where string, arg any) ([]*domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE `+where+` ORDER BY created_at ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	teams := []*domain.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("row scan error: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *PostgresTeamRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.Team, error) {
	return r.list(ctx, "manager_id = $1", managerID)
}

func (r *PostgresTeamRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Team, error) {
	return r.list(ctx, "$1 = ANY(members)", userID)
}

func (r *PostgresTeamRepository) Update(ctx context.Context, t *domain.Team) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal team settings: %w", err)
	}

	query := `
		UPDATE teams SET
			name=$1, members=$2, description=$3, department=$4, settings=$5, updated_at=$6
		WHERE id=$7`

	res, err := r.db.ExecContext(ctx, query,
		t.Name, pq.Array(t.Members), t.Description, t.Department, settings, time.Now().UTC(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *PostgresTeamRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}
