package repository

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

const (
	SortDefault = ""
	SortDueAsc  = "ascending"
	SortDueDesc = "descending"
)

// TaskFilter narrows task listings. Zero values disable a condition; a zero Limit
// returns every match.
// Without an explicit sort, tasks come back in creation order.
type TaskFilter struct {
	TeamIDs    []string
	AssignedTo string
	Priority   domain.Priority
	Completed  *bool
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	AddAssignees(ctx context.Context, taskID string, userIDs []string) error
	RemoveAssignees(ctx context.Context, taskID string, userIDs []string) error
}
