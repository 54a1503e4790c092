package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/usecase"
)

type UseCase struct {
	tasks  repository.TaskRepository
	teams  repository.TeamRepository
	users  repository.UserRepository
	tx     repository.Transactor
	events usecase.EventPublisher
	clock  clock.Clock
	logger *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	teams repository.TeamRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	events usecase.EventPublisher,
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
		tasks:  tasks,
		teams:  teams,
		users:  users,
		tx:     tx,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

// Input carries the editable task fields.
type Input struct {
	Title        string
	Description  string
	DueDate      time.Time
	Priority     domain.Priority
	ReminderDays *int
}

func (in Input) apply(task *domain.Task) {
	task.Title = strings.TrimSpace(in.Title)
	task.Description = in.Description
	task.DueDate = domain.DateOf(in.DueDate)
	task.Priority = in.Priority
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	task.ReminderDays = in.ReminderDays
}

// List returns the team's tasks. viewerID must be a member.
func (uc *UseCase) List(ctx context.Context, viewerID, teamID string, filter repository.TaskFilter) ([]domain.Task, error) {
	if _, err := uc.requireMember(ctx, teamID, viewerID); err != nil {
		return nil, err
	}
	filter.TeamIDs = []string{teamID}
	return uc.tasks.List(ctx, filter)
}

// Get returns a task visible to viewerID.
func (uc *UseCase) Get(ctx context.Context, viewerID, taskID string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.requireMember(ctx, task.TeamID, viewerID); err != nil {
		return nil, err
	}
	return task, nil
}

// Create adds a task to the team on behalf of a team member.
func (uc *UseCase) Create(ctx context.Context, actor *domain.User, teamID string, in Input) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	task := &domain.Task{TeamID: teamID, AssignedTo: []string{}}
	in.apply(task)
	if err := task.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Task
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		team, err := uc.requireMember(ctx, teamID, actor.ID)
		if err != nil {
			return err
		}
		if err := usecase.Publish(ctx, uc.events, domain.Event{
			Kind:    domain.EventTaskSaving,
			Actor:   actor,
			Created: true,
			Team:    team,
			Task:    task,
			At:      uc.clock.Now(),
		}); err != nil {
			return err
		}
		created, err = uc.tasks.Create(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("task created", zap.String("task_id", created.ID), zap.String("team_id", teamID))
	return created, nil
}

// Update edits the task's fields. Observers receive the persisted state as Previous.
func (uc *UseCase) Update(ctx context.Context, actor *domain.User, taskID string, in Input) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var updated *domain.Task
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		previous, team, err := uc.load(ctx, taskID, actor.ID)
		if err != nil {
			return err
		}
		next := previous.Clone()
		in.apply(next)
		if err := next.Validate(); err != nil {
			return err
		}
		if err := uc.save(ctx, actor, team, previous, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleCompletion flips the completed flag. Only assignees and the team admin may do so.
func (uc *UseCase) ToggleCompletion(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var updated *domain.Task
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		previous, team, err := uc.load(ctx, taskID, actor.ID)
		if err != nil {
			return err
		}
		if !previous.IsAssigned(actor.ID) && !team.IsAdmin(actor.ID) {
			return domain.NewError(domain.ErrCodeForbidden, "only assignees or the team admin can change completion")
		}
		next := previous.Clone()
		next.Completed = !previous.Completed
		if err := uc.save(ctx, actor, team, previous, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the task after announcing it.
func (uc *UseCase) Delete(ctx context.Context, actor *domain.User, taskID string) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	return uc.withinTx(ctx, func(ctx context.Context) error {
		task, team, err := uc.load(ctx, taskID, actor.ID)
		if err != nil {
			return err
		}
		if err := usecase.Publish(ctx, uc.events, domain.Event{
			Kind:  domain.EventTaskDeleting,
			Actor: actor,
			Team:  team,
			Task:  task,
			At:    uc.clock.Now(),
		}); err != nil {
			return err
		}
		return uc.tasks.Delete(ctx, task.ID)
	})
}

// SetAssignees replaces the assignee set with the given usernames. The change is
// split into additions (announced after they land) and removals (announced before).
// Every assignee must belong to the task's team.
func (uc *UseCase) SetAssignees(ctx context.Context, actor *domain.User, taskID string, usernames []string) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var result *domain.Task
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		task, team, err := uc.load(ctx, taskID, actor.ID)
		if err != nil {
			return err
		}

		wanted := make([]*domain.User, 0, len(usernames))
		wantedIDs := make(map[string]bool, len(usernames))
		for _, username := range usernames {
			user, err := uc.users.GetByUsername(ctx, strings.TrimSpace(username))
			if err != nil {
				return err
			}
			if !team.HasMember(user.ID) {
				return domain.Invalidf("%s is not a member of %s", user.Username, team.Name)
			}
			if wantedIDs[user.ID] {
				continue
			}
			wantedIDs[user.ID] = true
			wanted = append(wanted, user)
		}

		var removedIDs []string
		for _, id := range task.AssignedTo {
			if !wantedIDs[id] {
				removedIDs = append(removedIDs, id)
			}
		}
		var added []*domain.User
		for _, user := range wanted {
			if !task.IsAssigned(user.ID) {
				added = append(added, user)
			}
		}

		at := uc.clock.Now()
		if len(removedIDs) > 0 {
			removed, err := uc.users.GetMany(ctx, removedIDs)
			if err != nil {
				return err
			}
			if err := usecase.Publish(ctx, uc.events, domain.Event{
				Kind:    domain.EventTaskAssigneesRemoving,
				Actor:   actor,
				Team:    team,
				Task:    task,
				Related: userRefs(removed),
				At:      at,
			}); err != nil {
				return err
			}
			if err := uc.tasks.RemoveAssignees(ctx, task.ID, removedIDs); err != nil {
				return err
			}
		}
		if len(added) > 0 {
			ids := make([]string, 0, len(added))
			for _, user := range added {
				ids = append(ids, user.ID)
			}
			if err := uc.tasks.AddAssignees(ctx, task.ID, ids); err != nil {
				return err
			}
			if err := usecase.Publish(ctx, uc.events, domain.Event{
				Kind:    domain.EventTaskAssigneesAdded,
				Actor:   actor,
				Team:    team,
				Task:    task,
				Related: added,
				At:      at,
			}); err != nil {
				return err
			}
		}

		result, err = uc.tasks.GetByID(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *UseCase) save(ctx context.Context, actor *domain.User, team *domain.Team, previous, next *domain.Task) error {
	if err := usecase.Publish(ctx, uc.events, domain.Event{
		Kind:     domain.EventTaskSaving,
		Actor:    actor,
		Team:     team,
		Task:     next,
		Previous: previous,
		At:       uc.clock.Now(),
	}); err != nil {
		return err
	}
	return uc.tasks.Update(ctx, next)
}

func (uc *UseCase) load(ctx context.Context, taskID, userID string) (*domain.Task, *domain.Team, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	team, err := uc.requireMember(ctx, task.TeamID, userID)
	if err != nil {
		return nil, nil, err
	}
	return task, team, nil
}

func (uc *UseCase) requireMember(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	team, err := uc.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(userID) {
		return nil, domain.ErrNotTeamMember
	}
	return team, nil
}

func (uc *UseCase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.tx == nil {
		return fn(ctx)
	}
	return uc.tx.WithinTx(ctx, fn)
}

func userRefs(users []domain.User) []*domain.User {
	out := make([]*domain.User, 0, len(users))
	for i := range users {
		out = append(out, &users[i])
	}
	return out
}
