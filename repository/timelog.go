package repository

import (
	"context"
	"time"

	"github.com/fastygo/teamtasks/domain"
)

type TimeRepository interface {
	// AddTime bumps the (user, task) total and appends a TimeLog row.
	AddTime(ctx context.Context, userID, taskID string, seconds int64, at time.Time) (*domain.TimeSpent, error)
	TotalForTask(ctx context.Context, taskID string) (int64, error)
	ListSpent(ctx context.Context, userID string) ([]domain.TimeSpent, error)
	// ListLogs returns the user's submissions ordered by timestamp ascending.
	ListLogs(ctx context.Context, userID string) ([]domain.TimeLog, error)
	ResetUser(ctx context.Context, userID, taskID string) error
	ResetTask(ctx context.Context, taskID string) error
}
