// Package timetrack records time spent on tasks and reports on it.
package timetrack

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
)

const (
	ScopeUser  = "user"
	ScopeTotal = "total"
)

type UseCase struct {
	times  repository.TimeRepository
	tasks  repository.TaskRepository
	teams  repository.TeamRepository
	tx     repository.Transactor
	clock  clock.Clock
	logger *zap.Logger
}

func New(
	times repository.TimeRepository,
	tasks repository.TaskRepository,
	teams repository.TeamRepository,
	tx repository.Transactor,
	clk clock.Clock,
	logger *zap.Logger,
) *UseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		times:  times,
		tasks:  tasks,
		teams:  teams,
		tx:     tx,
		clock:  clk,
		logger: logger,
	}
}

// Summary is the time report for one user.
type Summary struct {
	Teams []domain.Team        `json:"teams"`
	Spent []domain.TimeSpent   `json:"time_spent"`
	Logs  []domain.TimeLog     `json:"time_logs"`
	Tasks map[string]TaskTotal `json:"tasks"`
}

// TaskTotal pairs a task title with the user's formatted total on it.
type TaskTotal struct {
	Title     string `json:"title"`
	Seconds   int64  `json:"seconds"`
	Formatted string `json:"formatted"`
}

// Submit adds the submitted duration to the user's total on the task and logs it.
func (uc *UseCase) Submit(ctx context.Context, userID, taskID string, in domain.TimeSubmission) (*domain.TimeSpent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var spent *domain.TimeSpent
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.requireTaskMember(ctx, taskID, userID); err != nil {
			return err
		}
		var err error
		spent, err = uc.times.AddTime(ctx, userID, taskID, in.Total(), uc.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("time submitted",
		zap.String("user_id", userID),
		zap.String("task_id", taskID),
		zap.Int64("seconds", in.Total()),
	)
	return spent, nil
}

// Reset clears time on the task: the caller's own entries for ScopeUser, everyone's
// for ScopeTotal.
func (uc *UseCase) Reset(ctx context.Context, userID, taskID, scope string) error {
	return uc.withinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.requireTaskMember(ctx, taskID, userID); err != nil {
			return err
		}
		switch scope {
		case "", ScopeUser:
			return uc.times.ResetUser(ctx, userID, taskID)
		case ScopeTotal:
			return uc.times.ResetTask(ctx, taskID)
		default:
			return domain.Invalidf("unknown reset scope %q", scope)
		}
	})
}

// Total returns the time all users spent on the task.
func (uc *UseCase) Total(ctx context.Context, userID, taskID string) (int64, error) {
	if _, err := uc.requireTaskMember(ctx, taskID, userID); err != nil {
		return 0, err
	}
	return uc.times.TotalForTask(ctx, taskID)
}

// Summary collects the user's teams, per-task totals and submissions (oldest first).
func (uc *UseCase) Summary(ctx context.Context, userID string) (*Summary, error) {
	teams, err := uc.teams.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	spent, err := uc.times.ListSpent(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := uc.times.ListLogs(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		Teams: teams,
		Spent: spent,
		Logs:  logs,
		Tasks: make(map[string]TaskTotal, len(spent)),
	}
	for _, row := range spent {
		task, err := uc.tasks.GetByID(ctx, row.TaskID)
		if err != nil {
			return nil, err
		}
		summary.Tasks[row.TaskID] = TaskTotal{
			Title:     task.Title,
			Seconds:   row.Seconds,
			Formatted: FormatDuration(row.Seconds),
		}
	}
	return summary, nil
}

func (uc *UseCase) requireTaskMember(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	team, err := uc.teams.GetByID(ctx, task.TeamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(userID) {
		return nil, domain.ErrNotTeamMember
	}
	return task, nil
}

func (uc *UseCase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.tx == nil {
		return fn(ctx)
	}
	return uc.tx.WithinTx(ctx, fn)
}

// FormatDuration renders seconds as "1d 2h 3m 4s " with zero parts left out.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "No time has been spent."
	}
	parts := []struct {
		unit   string
		length int64
	}{
		{"d", 86400},
		{"h", 3600},
		{"m", 60},
		{"s", 1},
	}
	var b strings.Builder
	for _, p := range parts {
		if n := seconds / p.length; n > 0 {
			fmt.Fprintf(&b, "%d%s ", n, p.unit)
			seconds %= p.length
		}
	}
	return b.String()
}
