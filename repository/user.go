package repository

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

// UserSearch selects users by username prefix or by first/last name (case-insensitive).
// Populated name fields are combined with AND when MatchBoth is set, OR otherwise.
type UserSearch struct {
	UsernamePrefix string
	FirstName      string
	LastName       string
	MatchBoth      bool
	Limit          int
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Search(ctx context.Context, query UserSearch) ([]domain.User, error)
}
