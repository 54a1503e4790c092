package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/usecase"
)

const searchLimit = 50

// PasswordHasher turns a clear-text password into a stored hash.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// SessionRevoker ends a user's other sessions after a password change.
type SessionRevoker interface {
	RevokeOtherSessions(ctx context.Context, userID, keepID string) error
}

type UseCase struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	sessions SessionRevoker
	events   usecase.EventPublisher
	clock    clock.Clock
	logger   *zap.Logger
}

type Option func(*UseCase)

func WithSessionRevoker(sessions SessionRevoker) Option {
	return func(uc *UseCase) { uc.sessions = sessions }
}

func New(users repository.UserRepository, hasher PasswordHasher, events usecase.EventPublisher, clk clock.Clock, logger *zap.Logger, opts ...Option) *UseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:  users,
		hasher: hasher,
		events: events,
		clock:  clk,
		logger: logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type UpdateInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile edits the user's details and records the edit.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Username = strings.TrimSpace(in.Username)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Email = strings.TrimSpace(in.Email)
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := uc.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one. Every other
// session of the user is revoked; sessionID survives.
func (uc *UseCase) ChangePassword(ctx context.Context, userID, sessionID, current, password, confirmation string) error {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return domain.ErrBadCredentials
	}
	if err := domain.ValidatePassword(password, confirmation); err != nil {
		return err
	}
	hash, err := uc.hasher.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := uc.save(ctx, user); err != nil {
		return err
	}
	if uc.sessions == nil {
		return nil
	}
	if err := uc.sessions.RevokeOtherSessions(ctx, userID, sessionID); err != nil {
		uc.logger.Warn("failed to revoke sessions after password change", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// Search finds users by "@prefix", by "first last", or by a single first or last name.
func (uc *UseCase) Search(ctx context.Context, query string) ([]domain.User, error) {
	return uc.users.Search(ctx, ParseQuery(query))
}

// ParseQuery turns free-form search input into a repository query.
func ParseQuery(query string) repository.UserSearch {
	query = strings.TrimSpace(query)
	search := repository.UserSearch{Limit: searchLimit}
	if strings.HasPrefix(query, "@") {
		search.UsernamePrefix = query
		return search
	}
	parts := strings.Fields(query)
	switch len(parts) {
	case 0:
	case 1:
		search.FirstName = parts[0]
		search.LastName = parts[0]
	default:
		search.FirstName = parts[0]
		search.LastName = strings.Join(parts[1:], " ")
		search.MatchBoth = true
	}
	return search
}

func (uc *UseCase) save(ctx context.Context, user *domain.User) error {
	if err := uc.users.Update(ctx, user); err != nil {
		return err
	}
	if err := usecase.Publish(ctx, uc.events, domain.Event{
		Kind:    domain.EventUserSaved,
		Subject: user,
		At:      uc.clock.Now(),
	}); err != nil {
		uc.logger.Error("profile activity not recorded", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}
