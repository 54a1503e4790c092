package repository

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

type ActivityRepository interface {
	// Get returns domain.ErrActivityNotFound when the user has no log yet.
	Get(ctx context.Context, userID string) (*domain.ActivityLog, error)
	// GetOrCreate fetches the user's log, creating an empty one if absent. Inside a
	// transaction the log stays locked until commit.
	GetOrCreate(ctx context.Context, userID string) (*domain.ActivityLog, error)
	// Save replaces the stored entries with log.Entries.
	Save(ctx context.Context, log *domain.ActivityLog) error
	// Append adds entries after the existing ones, creating the log if needed.
	Append(ctx context.Context, userID string, entries []domain.ActivityEntry) error
}
