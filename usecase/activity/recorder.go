// Package activity keeps the per-user activity journal. The Recorder subscribes to
// lifecycle events on a usecase.Dispatcher and turns them into log lines.
package activity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/actor"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/usecase"
)

const (
	DefaultLoginDedupWindow = 2 * time.Second
	DefaultPageSize         = 10
)

// Config tunes the recorder.
type Config struct {
	// LoginDedupWindow retracts the latest entry on login when it is younger than
	// this; logging in saves the user record, which would otherwise show up as an edit.
	LoginDedupWindow time.Duration
	PageSize         int
}

type Recorder struct {
	logs   repository.ActivityRepository
	tx     repository.Transactor
	clock  clock.Clock
	cfg    Config
	logger *zap.Logger
}

func New(logs repository.ActivityRepository, tx repository.Transactor, clk clock.Clock, cfg Config, logger *zap.Logger) *Recorder {
	if clk == nil {
		clk = clock.System{}
	}
	if cfg.LoginDedupWindow <= 0 {
		cfg.LoginDedupWindow = DefaultLoginDedupWindow
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logs:   logs,
		tx:     tx,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// Kinds lists every event the recorder handles.
var Kinds = []domain.EventKind{
	domain.EventUserLoggedIn,
	domain.EventUserLoggedOut,
	domain.EventUserSaved,
	domain.EventTeamSaving,
	domain.EventTeamDeleting,
	domain.EventTeamMembersAdded,
	domain.EventTeamMembersRemoving,
	domain.EventTaskSaving,
	domain.EventTaskDeleting,
	domain.EventTaskAssigneesAdded,
	domain.EventTaskAssigneesRemoving,
}

// Register subscribes the recorder to d.
func (r *Recorder) Register(d *usecase.Dispatcher) {
	d.Subscribe(r.Handle, Kinds...)
}

// Handle turns one lifecycle event into zero or more log lines for the acting user.
func (r *Recorder) Handle(ctx context.Context, event domain.Event) error {
	at := event.At
	if at.IsZero() {
		at = r.clock.Now()
	}

	switch event.Kind {
	case domain.EventUserLoggedIn:
		return r.loggedIn(ctx, event.Subject, at)
	case domain.EventUserLoggedOut:
		if event.Subject == nil {
			return nil
		}
		return r.Record(ctx, event.Subject, at, loggedOutMessage(event.Subject))
	case domain.EventUserSaved:
		if event.Subject == nil {
			return nil
		}
		if event.Created {
			return r.Record(ctx, event.Subject, at, signedUpMessage(event.Subject))
		}
		return r.Record(ctx, event.Subject, at, editedUserMessage(event.Subject))
	}

	user := actor.Resolve(ctx, event.Actor)
	if user == nil {
		r.logger.Debug("activity dropped, no actor", zap.String("event", string(event.Kind)))
		return nil
	}

	var messages []string
	switch event.Kind {
	case domain.EventTeamSaving:
		// Only creation is journaled, and only for the team's admin.
		if event.Team == nil || !event.Created || !event.Team.IsAdmin(user.ID) {
			return nil
		}
		messages = append(messages, teamCreatedMessage(user, event.Team))
	case domain.EventTeamDeleting:
		if event.Team == nil {
			return nil
		}
		messages = append(messages, teamDeletedMessage(user, event.Team))
	case domain.EventTeamMembersAdded:
		for _, member := range event.Related {
			messages = append(messages, memberAddedMessage(user, member, event.Team))
		}
	case domain.EventTeamMembersRemoving:
		for _, member := range event.Related {
			messages = append(messages, memberRemovedMessage(user, member, event.Team))
		}
	case domain.EventTaskSaving:
		if event.Task == nil {
			return nil
		}
		if event.Created || event.Previous == nil {
			messages = append(messages, taskCreatedMessage(user, event.Task))
		} else {
			messages = taskChangeMessages(user, event.Previous, event.Task)
		}
	case domain.EventTaskDeleting:
		if event.Task == nil {
			return nil
		}
		messages = append(messages, taskDeletedMessage(user, event.Task))
	case domain.EventTaskAssigneesAdded:
		for _, member := range event.Related {
			messages = append(messages, assigneeAddedMessage(user, member, event.Task))
		}
	case domain.EventTaskAssigneesRemoving:
		for _, member := range event.Related {
			messages = append(messages, assigneeRemovedMessage(user, member, event.Task))
		}
	}
	return r.Record(ctx, user, at, messages...)
}

// Record appends messages to user's log, all stamped with at, in the given order.
// A nil user or an empty message list records nothing.
func (r *Recorder) Record(ctx context.Context, user *domain.User, at time.Time, messages ...string) error {
	if user == nil || len(messages) == 0 {
		return nil
	}
	stamp := domain.FormatActivityTime(at)
	entries := make([]domain.ActivityEntry, 0, len(messages))
	for _, message := range messages {
		entries = append(entries, domain.ActivityEntry{Message: message, Timestamp: stamp})
	}
	if err := r.logs.Append(ctx, user.ID, entries); err != nil {
		r.logger.Error("failed to append activity", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Recorder) loggedIn(ctx context.Context, user *domain.User, at time.Time) error {
	if user == nil {
		return nil
	}
	message := loggedInMessage(user)

	err := r.withinTx(ctx, func(ctx context.Context) error {
		log, err := r.logs.GetOrCreate(ctx, user.ID)
		if err != nil {
			return err
		}
		if last, ok := log.Last(); ok {
			lastAt, err := last.Time(at.Location())
			if err == nil && at.Sub(lastAt) < r.cfg.LoginDedupWindow {
				log.PopLast()
			}
		}
		log.Append(message, at)
		return r.logs.Save(ctx, log)
	})
	if err == nil {
		return nil
	}
	r.logger.Warn("login de-dup unavailable, appending", zap.String("user_id", user.ID), zap.Error(err))
	return r.Record(ctx, user, at, message)
}

func (r *Recorder) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.tx == nil {
		return fn(ctx)
	}
	return r.tx.WithinTx(ctx, fn)
}
