package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/usecase"
)

const DefaultSessionTTL = 24 * time.Hour

// TokenIssuer signs access tokens bound to a session.
type TokenIssuer interface {
	Issue(userID, sessionID string, expiresAt time.Time) (string, error)
}

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     TokenIssuer
	events     usecase.EventPublisher
	clock      clock.Clock
	sessionTTL time.Duration
	hashCost   int
	logger     *zap.Logger
}

// Option customizes the use case.
type Option func(*UseCase)

// WithSessionTTL sets how long sessions and their tokens stay valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(uc *UseCase) {
		if ttl > 0 {
			uc.sessionTTL = ttl
		}
	}
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(uc *UseCase) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			uc.hashCost = cost
		}
	}
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens TokenIssuer,
	events usecase.EventPublisher,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...Option,
) *UseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		events:     events,
		clock:      clk,
		sessionTTL: DefaultSessionTTL,
		hashCost:   bcrypt.DefaultCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type SignUpInput struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Confirmation string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	User    *domain.User    `json:"user"`
	Session *domain.Session `json:"session"`
	Token   string          `json:"token"`
}

// SignUp registers a new user.
func (uc *UseCase) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	user := &domain.User{
		Username:  strings.TrimSpace(in.Username),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password, in.Confirmation); err != nil {
		return nil, err
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := usecase.Publish(ctx, uc.events, domain.Event{
		Kind:    domain.EventUserSaved,
		Subject: user,
		Created: true,
		At:      uc.clock.Now(),
	}); err != nil {
		return nil, err
	}
	uc.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks the credentials and opens a session.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := uc.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrBadCredentials
	}

	session, err := uc.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := usecase.Publish(ctx, uc.events, domain.Event{
		Kind:    domain.EventUserLoggedIn,
		Subject: user,
		At:      uc.clock.Now(),
	}); err != nil {
		uc.logger.Error("login activity not recorded", zap.String("user_id", user.ID), zap.Error(err))
	}
	return &LoginResult{User: user, Session: session, Token: session.Token}, nil
}

// Logout revokes the session and records the logout.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return err
	}
	if err := usecase.Publish(ctx, uc.events, domain.Event{
		Kind:    domain.EventUserLoggedOut,
		Subject: user,
		At:      uc.clock.Now(),
	}); err != nil {
		uc.logger.Error("logout activity not recorded", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (uc *UseCase) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	session := domain.NewSession(uuid.NewString(), userID, uc.clock.Now(), uc.sessionTTL)
	if err := uc.sign(session); err != nil {
		return nil, err
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.clock.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession extends the session and issues a fresh token for it.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Renew(uc.clock.Now(), uc.sessionTTL)
	if err := uc.sign(session); err != nil {
		return nil, err
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Authenticate resolves a live session to its user.
func (uc *UseCase) Authenticate(ctx context.Context, sessionID string) (*domain.User, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, session.UserID)
}

// RevokeOtherSessions ends every session of the user except keepID.
func (uc *UseCase) RevokeOtherSessions(ctx context.Context, userID, keepID string) error {
	return uc.sessions.DeleteForUser(ctx, userID, keepID)
}

func (uc *UseCase) sign(session *domain.Session) error {
	if uc.tokens == nil {
		return nil
	}
	token, err := uc.tokens.Issue(session.UserID, session.ID, session.ExpiresAt)
	if err != nil {
		return err
	}
	session.Token = token
	return nil
}

// HashPassword is exposed for the profile use case.
func (uc *UseCase) HashPassword(password string) (string, error) {
	return uc.hash(password)
}

func (uc *UseCase) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.hashCost)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}
	return string(hash), nil
}
