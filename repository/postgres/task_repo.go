package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `
	t.id, t.team_id, t.title, t.description, t.due_date, t.priority, t.completed, t.seen,
	t.reminder_days, t.created_at, t.updated_at,
	COALESCE((SELECT array_agg(a.user_id ORDER BY a.position) FROM task_assignees a WHERE a.task_id = t.id), '{}')
`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	row := conn(ctx, r.pool).QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	order := "t.seq ASC"
	switch filter.Sort {
	case repository.SortDueAsc:
		order = "t.due_date ASC, t.seq ASC"
	case repository.SortDueDesc:
		order = "t.due_date DESC, t.seq ASC"
	}

	query := fmt.Sprintf(`
	SELECT %s
	FROM tasks t
	WHERE (cardinality($1::text[]) = 0 OR t.team_id = ANY($1::text[]))
	  AND ($2 = '' OR EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = $2))
	  AND ($3 = '' OR t.priority = $3)
	  AND ($4::boolean IS NULL OR t.completed = $4::boolean)
	  AND ($5 = '' OR t.title ILIKE '%%' || $5 || '%%' OR t.description ILIKE '%%' || $5 || '%%')
	ORDER BY %s
	LIMIT NULLIF($6::bigint, 0) OFFSET $7
	`, taskColumns, order)

	teamIDs := filter.TeamIDs
	if teamIDs == nil {
		teamIDs = []string{}
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query,
		teamIDs,
		filter.AssignedTo,
		string(filter.Priority),
		filter.Completed,
		filter.Search,
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, team_id, title, description, due_date, priority, completed, seen, reminder_days)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`

	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		task.ID,
		task.TeamID,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Priority),
		task.Completed,
		task.Seen,
		task.ReminderDays,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	if len(task.AssignedTo) > 0 {
		if err := r.AddAssignees(ctx, task.ID, task.AssignedTo); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		due_date = $4,
		priority = $5,
		completed = $6,
		seen = $7,
		reminder_days = $8,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Priority),
		task.Completed,
		task.Seen,
		task.ReminderDays,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) AddAssignees(ctx context.Context, taskID string, userIDs []string) error {
	const query = `
	INSERT INTO task_assignees (task_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (task_id, user_id) DO NOTHING
	`
	q := conn(ctx, r.pool)
	for _, userID := range userIDs {
		if _, err := q.Exec(ctx, query, taskID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepository) RemoveAssignees(ctx context.Context, taskID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM task_assignees WHERE task_id = $1 AND user_id = ANY($2::text[])`,
		taskID, userIDs)
	return err
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
	)

	if err := row.Scan(
		&task.ID,
		&task.TeamID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&priority,
		&task.Completed,
		&task.Seen,
		&task.ReminderDays,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.AssignedTo,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.DueDate = domain.DateOf(task.DueDate)
	return &task, nil
}
