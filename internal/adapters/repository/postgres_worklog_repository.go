package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

var _ domain.WorkLogRepository = (*PostgresWorkLogRepository)(nil)

type PostgresWorkLogRepository struct {
	db *sqlx.DB
}

func NewPostgresWorkLogRepository(db *sqlx.DB) *PostgresWorkLogRepository {
	return &PostgresWorkLogRepository{db: db}
}

type workLogRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	LogDate    time.Time      `db:"log_date"`
	Tasks      []byte         `db:"tasks"`
	MoodScore  int            `db:"mood_score"`
	MoodEmoji  string         `db:"mood_emoji"`
	Blockers   string         `db:"blockers"`
	Summary    string         `db:"summary"`
	Status     string         `db:"status"`
	ReviewedBy sql.NullString `db:"reviewed_by"`
	ReviewedAt sql.NullTime   `db:"reviewed_at"`
	Feedback   []byte         `db:"feedback"`
	Version    int            `db:"version"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (row workLogRow) toDomain() (*domain.WorkLog, error) {
	l := &domain.WorkLog{
		ID:        row.ID,
		UserID:    row.UserID,
		Date:      time.Date(row.LogDate.Year(), row.LogDate.Month(), row.LogDate.Day(), 0, 0, 0, 0, time.UTC),
		Mood:      domain.Mood{Score: row.MoodScore, Emoji: row.MoodEmoji},
		Blockers:  row.Blockers,
		Summary:   row.Summary,
		Status:    domain.ReviewStatus(row.Status),
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if err := json.Unmarshal(row.Tasks, &l.Tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}
	if err := json.Unmarshal(row.Feedback, &l.Feedback); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
	}
	if l.Feedback == nil {
		l.Feedback = []domain.Feedback{}
	}
	for i := range l.Tasks {
		if l.Tasks[i].ReviewStatus == "" {
			l.Tasks[i].ReviewStatus = domain.ReviewPending
		}
		if l.Tasks[i].Feedback == nil {
			l.Tasks[i].Feedback = []domain.Feedback{}
		}
	}

	if row.ReviewedBy.Valid {
		l.ReviewedBy = &row.ReviewedBy.String
	}
	if row.ReviewedAt.Valid {
		l.ReviewedAt = &row.ReviewedAt.Time
	}

	return l, nil
}

func rowsToLogs(rows []workLogRow) ([]*domain.WorkLog, error) {
	logs := make([]*domain.WorkLog, 0, len(rows))
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func marshalLogJSON(l *domain.WorkLog) (tasks []byte, feedback []byte, err error) {
	if tasks, err = json.Marshal(l.Tasks); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	fb := l.Feedback
	if fb == nil {
		fb = []domain.Feedback{}
	}
	if feedback, err = json.Marshal(fb); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return tasks, feedback, nil
}

func (r *PostgresWorkLogRepository) Create(ctx context.Context, l *domain.WorkLog) error {
	tasks, feedback, err := marshalLogJSON(l)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO work_logs (
			id, user_id, log_date, tasks, mood_score, mood_emoji,
			blockers, summary, status, reviewed_by, reviewed_at, feedback,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			1, $13, $14
		)`

	_, err = r.db.ExecContext(ctx, query,
		l.ID, l.UserID, l.Date.Format(domain.DateLayout), tasks, l.Mood.Score, l.Mood.Emoji,
		l.Blockers, l.Summary, string(l.Status), l.ReviewedBy, l.ReviewedAt, feedback,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return domain.ErrLogAlreadyExists
		case pgForeignKeyViolation:
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert work log: %w", err)
	}

	l.Version = 1
	return nil
}

func (r *PostgresWorkLogRepository) getOne(ctx context.Context, query string, args ...any) (*domain.WorkLog, error) {
	var row workLogRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWorkLogNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return row.toDomain()
}

func (r *PostgresWorkLogRepository) GetByID(ctx context.Context, id string) (*domain.WorkLog, error) {
	return r.getOne(ctx, `SELECT * FROM work_logs WHERE id = $1`, id)
}

func (r *PostgresWorkLogRepository) GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.WorkLog, error) {
	return r.getOne(ctx,
		`SELECT * FROM work_logs WHERE user_id = $1 AND log_date = $2::date`,
		userID, day.UTC().Format(domain.DateLayout))
}

func (r *PostgresWorkLogRepository) Update(ctx context.Context, l *domain.WorkLog) error {
	tasks, feedback, err := marshalLogJSON(l)
	if err != nil {
		return err
	}

	query := `
		UPDATE work_logs SET
			tasks=$1, mood_score=$2, mood_emoji=$3, blockers=$4, summary=$5,
			status=$6, reviewed_by=$7, reviewed_at=$8, feedback=$9,
			updated_at=NOW(), version = version + 1
		WHERE id=$10 AND version=$11
		RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		tasks, l.Mood.Score, l.Mood.Emoji, l.Blockers, l.Summary,
		string(l.Status), l.ReviewedBy, l.ReviewedAt, feedback,
		l.ID, l.Version,
	)

	var newVersion int
	var newUpdatedAt time.Time

	if err := row.Scan(&newVersion, &newUpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var count int
			if checkErr := r.db.QueryRowContext(ctx, `SELECT count(*) FROM work_logs WHERE id = $1`, l.ID).Scan(&count); checkErr != nil {
				return fmt.Errorf("existence check failed: %w", checkErr)
			}

			if count == 0 {
				return domain.ErrWorkLogNotFound
			}
			return domain.ErrWorkLogConflict
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	l.Version = newVersion
	l.UpdatedAt = newUpdatedAt
	return nil
}

func (r *PostgresWorkLogRepository) Delete(ctx context.Context, id string, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrWorkLogNotFound
	}
	return nil
}

// buildLogFilter renders the WHERE clause shared by the page and count queries.
func buildLogFilter(f domain.LogFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if len(f.UserIDs) > 0 {
		add("user_id = ANY($%d)", pq.Array(f.UserIDs))
	}
	if f.From != nil {
		add("log_date >= $%d::date", f.From.UTC().Format(domain.DateLayout))
	}
	if f.To != nil {
		add("log_date <= $%d::date", f.To.UTC().Format(domain.DateLayout))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.HasBlockers {
		clauses = append(clauses, "btrim(blockers) <> ''")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PostgresWorkLogRepository) List(ctx context.Context, f domain.LogFilter) ([]*domain.WorkLog, int, error) {
	where, args := buildLogFilter(f)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM work_logs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count query error: %w", err)
	}

	query := `SELECT * FROM work_logs` + where +
		fmt.Sprintf(" ORDER BY log_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows := []workLogRow{}
	if err := r.db.SelectContext(ctx, &rows, query, append(args, f.Limit, f.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("query error: %w", err)
	}

	logs, err := rowsToLogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *PostgresWorkLogRepository) ListByUsers(ctx context.Context, userIDs []string, from, to time.Time) ([]*domain.WorkLog, error) {
	if len(userIDs) == 0 {
		return []*domain.WorkLog{}, nil
	}

	query := `
		SELECT * FROM work_logs
		WHERE user_id = ANY($1)
		  AND log_date >= $2::date
		  AND log_date <= $3::date
		ORDER BY log_date ASC, user_id ASC`

	rows := []workLogRow{}
	err := r.db.SelectContext(ctx, &rows, query,
		pq.Array(userIDs), from.UTC().Format(domain.DateLayout), to.UTC().Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return rowsToLogs(rows)
}

func (r *PostgresWorkLogRepository) ListDates(ctx context.Context, userID string) ([]time.Time, error) {
	dates := []time.Time{}
	err := r.db.SelectContext(ctx, &dates, `SELECT log_date FROM work_logs WHERE user_id = $1 ORDER BY log_date ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return dates, nil
}
