package repository

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Team, error)
	Create(ctx context.Context, team *domain.Team) (*domain.Team, error)
	// Delete removes the team together with its tasks.
	Delete(ctx context.Context, id string) error
	AddMembers(ctx context.Context, teamID string, userIDs []string) error
	RemoveMembers(ctx context.Context, teamID string, userIDs []string) error
}
