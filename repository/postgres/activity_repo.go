package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository stores each user's log as one JSONB array row.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Get(ctx context.Context, userID string) (*domain.ActivityLog, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT user_id, log, updated_at FROM activity_logs WHERE user_id = $1`, userID)
	return scanActivityLog(row)
}

func (r *activityRepository) GetOrCreate(ctx context.Context, userID string) (*domain.ActivityLog, error) {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `
	INSERT INTO activity_logs (user_id, log)
	VALUES ($1, '[]'::jsonb)
	ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}

	query := `SELECT user_id, log, updated_at FROM activity_logs WHERE user_id = $1`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	return scanActivityLog(q.QueryRow(ctx, query, userID))
}

func (r *activityRepository) Save(ctx context.Context, log *domain.ActivityLog) error {
	if log == nil || log.UserID == "" {
		return domain.ErrInvalidPayload
	}
	entries := log.Entries
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO activity_logs (user_id, log, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET log = EXCLUDED.log,
		updated_at = NOW()
	RETURNING updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query, log.UserID, payload).Scan(&log.UpdatedAt)
}

func scanActivityLog(row pgx.Row) (*domain.ActivityLog, error) {
	var (
		log     domain.ActivityLog
		payload []byte
	)
	if err := row.Scan(&log.UserID, &payload, &log.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}
	log.Entries = []domain.ActivityEntry{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &log.Entries); err != nil {
			return nil, err
		}
	}
	return &log, nil
}

// Append concatenates entries onto the stored JSONB array in a single statement, so
// concurrent appends for the same user never overwrite each other.
func (r *activityRepository) Append(ctx context.Context, userID string, entries []domain.ActivityEntry) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	if len(entries) == 0 {
		return nil
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO activity_logs (user_id, log, updated_at)
	VALUES ($1, $2::jsonb, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET log = activity_logs.log || EXCLUDED.log,
		updated_at = NOW()
	`
	_, err = conn(ctx, r.pool).Exec(ctx, query, userID, payload)
	return err
}
