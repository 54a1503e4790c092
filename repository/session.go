package repository

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

// SessionRepository stores live sessions. Implementations drop sessions once they
// expire; Get returns domain.ErrSessionNotFound for them.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	// DeleteForUser revokes every session of the user except keepID.
	DeleteForUser(ctx context.Context, userID, keepID string) error
}
