// Package notification computes due-date reminders for a user and tracks which
// reminders the user has already seen.
package notification

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
)

// Notification is one reminder line paired with the task it refers to.
type Notification struct {
	Message  string          `json:"message"`
	TaskID   string          `json:"task_id"`
	Priority domain.Priority `json:"priority"`
}

// Message renders the reminder text for task. High priority reminders use their own
// wording so clients can style them apart.
func Message(task *domain.Task) string {
	due := domain.FormatDate(task.DueDate)
	if task.Priority == domain.PriorityHigh {
		return fmt.Sprintf("Reminder: High priority task '%s' is due on %s.", task.Title, due)
	}
	return fmt.Sprintf("Reminder: %s priority task '%s' is due on %s.", task.Priority.Label(), task.Title, due)
}

// Sort orders notifications high, medium, low. Equal priorities keep their input order.
func Sort(items []Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority.Rank() < items[j].Priority.Rank()
	})
}

type UseCase struct {
	teams  repository.TeamRepository
	tasks  repository.TaskRepository
	clock  clock.Clock
	logger *zap.Logger
}

func New(teams repository.TeamRepository, tasks repository.TaskRepository, clk clock.Clock, logger *zap.Logger) *UseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		teams:  teams,
		tasks:  tasks,
		clock:  clk,
		logger: logger,
	}
}

// Collect returns the sorted reminders for userID as of today: unseen, due-soon
// tasks of the user's teams that are assigned to the user.
func (uc *UseCase) Collect(ctx context.Context, userID string) ([]Notification, error) {
	teams, err := uc.teams.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return []Notification{}, nil
	}
	teamIDs := make([]string, 0, len(teams))
	for _, team := range teams {
		teamIDs = append(teamIDs, team.ID)
	}

	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{TeamIDs: teamIDs})
	if err != nil {
		return nil, err
	}

	today := clock.Today(uc.clock)
	out := make([]Notification, 0)
	for i := range tasks {
		task := &tasks[i]
		if task.Seen || !task.IsDueSoon(today) || !task.IsAssigned(userID) {
			continue
		}
		out = append(out, Notification{
			Message:  Message(task),
			TaskID:   task.ID,
			Priority: task.Priority,
		})
	}
	Sort(out)
	return out, nil
}

// MarkSeen flags the task as seen on behalf of userID, who must belong to the task's
// team. Marking an already seen task is a no-op.
func (uc *UseCase) MarkSeen(ctx context.Context, userID, taskID string) (*domain.Task, error) {
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
	if !task.MarkSeen() {
		return task, nil
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.logger.Debug("task marked seen", zap.String("task_id", taskID), zap.String("user_id", userID))
	return task, nil
}
