package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

type timeRepository struct {
	pool *pgxpool.Pool
}

// NewTimeRepository returns the Postgres store for time_spent totals and time_logs rows.
func NewTimeRepository(pool *pgxpool.Pool) repository.TimeRepository {
	return &timeRepository{pool: pool}
}

// AddTime expects to run inside a transaction so the total and the log row commit together.
func (r *timeRepository) AddTime(ctx context.Context, userID, taskID string, seconds int64, at time.Time) (*domain.TimeSpent, error) {
	q := conn(ctx, r.pool)
	spent := &domain.TimeSpent{UserID: userID, TaskID: taskID}

	if err := q.QueryRow(ctx, `
	INSERT INTO time_spent (user_id, task_id, time_spent)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, task_id) DO UPDATE
	SET time_spent = time_spent.time_spent + EXCLUDED.time_spent
	RETURNING time_spent
	`, userID, taskID, seconds).Scan(&spent.Seconds); err != nil {
		return nil, err
	}

	if _, err := q.Exec(ctx, `
	INSERT INTO time_logs (id, user_id, task_id, logged_time, timestamp)
	VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), userID, taskID, seconds, at); err != nil {
		return nil, err
	}
	return spent, nil
}

func (r *timeRepository) TotalForTask(ctx context.Context, taskID string) (int64, error) {
	var total int64
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(SUM(time_spent), 0) FROM time_spent WHERE task_id = $1`, taskID).Scan(&total)
	return total, err
}

func (r *timeRepository) ListSpent(ctx context.Context, userID string) ([]domain.TimeSpent, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT user_id, task_id, time_spent FROM time_spent WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TimeSpent
	for rows.Next() {
		var spent domain.TimeSpent
		if err := rows.Scan(&spent.UserID, &spent.TaskID, &spent.Seconds); err != nil {
			return nil, err
		}
		out = append(out, spent)
	}
	return out, rows.Err()
}

func (r *timeRepository) ListLogs(ctx context.Context, userID string) ([]domain.TimeLog, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
	SELECT id, user_id, task_id, logged_time, timestamp
	FROM time_logs
	WHERE user_id = $1
	ORDER BY timestamp ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TimeLog
	for rows.Next() {
		var entry domain.TimeLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.TaskID, &entry.Seconds, &entry.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *timeRepository) ResetUser(ctx context.Context, userID, taskID string) error {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM time_logs WHERE user_id = $1 AND task_id = $2`, userID, taskID); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `DELETE FROM time_spent WHERE user_id = $1 AND task_id = $2`, userID, taskID)
	return err
}

func (r *timeRepository) ResetTask(ctx context.Context, taskID string) error {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM time_logs WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `DELETE FROM time_spent WHERE task_id = $1`, taskID)
	return err
}
