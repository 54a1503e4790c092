package services

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/internal/config"
	"github.com/fastygo/teamtasks/internal/infrastructure/buffer"
	"github.com/fastygo/teamtasks/repository"
)

// Enqueuer persists activity entries for later replay.
type Enqueuer interface {
	Enqueue(item buffer.Item) error
}

// GuardedActivityStore puts a circuit breaker in front of an activity repository.
// Appends made outside a transaction (login and logout lines) survive a database
// outage by landing in the offline buffer; everything else fails fast.
type GuardedActivityStore struct {
	inner   repository.ActivityRepository
	buffer  Enqueuer
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewGuardedActivityStore(inner repository.ActivityRepository, buf Enqueuer, cfg config.BreakerConfig, logger *zap.Logger) *GuardedActivityStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "activity-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Domain errors are answers, not outages.
			var dErr *domain.Error
			return err == nil || errors.As(err, &dErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &GuardedActivityStore{
		inner:   inner,
		buffer:  buf,
		breaker: breaker,
		logger:  logger,
	}
}

// State exposes the breaker state for health reporting.
func (g *GuardedActivityStore) State() gobreaker.State {
	return g.breaker.State()
}

func (g *GuardedActivityStore) Get(ctx context.Context, userID string) (*domain.ActivityLog, error) {
	return guarded(g.breaker, func() (*domain.ActivityLog, error) {
		return g.inner.Get(ctx, userID)
	})
}

func (g *GuardedActivityStore) GetOrCreate(ctx context.Context, userID string) (*domain.ActivityLog, error) {
	return guarded(g.breaker, func() (*domain.ActivityLog, error) {
		return g.inner.GetOrCreate(ctx, userID)
	})
}

func (g *GuardedActivityStore) Save(ctx context.Context, log *domain.ActivityLog) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.inner.Save(ctx, log)
	})
	return err
}

func (g *GuardedActivityStore) Append(ctx context.Context, userID string, entries []domain.ActivityEntry) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.inner.Append(ctx, userID, entries)
	})
	if err == nil || repository.InTx(ctx) || g.buffer == nil || !g.breakerFailure(err) {
		return err
	}

	if bufErr := g.buffer.Enqueue(buffer.Item{UserID: userID, Entries: entries}); bufErr != nil {
		g.logger.Error("failed to buffer activity", zap.String("user_id", userID), zap.Error(bufErr))
		return err
	}
	g.logger.Warn("activity buffered", zap.String("user_id", userID), zap.Int("entries", len(entries)), zap.Error(err))
	return nil
}

func (g *GuardedActivityStore) breakerFailure(err error) bool {
	var dErr *domain.Error
	return !errors.As(err, &dErr)
}

func guarded[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

var _ repository.ActivityRepository = (*GuardedActivityStore)(nil)
