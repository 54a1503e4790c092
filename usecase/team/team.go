package team

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/usecase"
)

type UseCase struct {
	teams  repository.TeamRepository
	tasks  repository.TaskRepository
	users  repository.UserRepository
	tx     repository.Transactor
	events usecase.EventPublisher
	clock  clock.Clock
	logger *zap.Logger
}

func New(
	teams repository.TeamRepository,
	tasks repository.TaskRepository,
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
		teams:  teams,
		tasks:  tasks,
		users:  users,
		tx:     tx,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

// Details is a team together with its member records, in membership order.
type Details struct {
	Team    *domain.Team  `json:"team"`
	Members []domain.User `json:"members"`
}

func (uc *UseCase) ListForUser(ctx context.Context, userID string) ([]domain.Team, error) {
	return uc.teams.ListForUser(ctx, userID)
}

// Get returns the team with its members. Only members may look at a team.
func (uc *UseCase) Get(ctx context.Context, viewerID, teamID string) (*Details, error) {
	team, err := uc.RequireMember(ctx, teamID, viewerID)
	if err != nil {
		return nil, err
	}
	members, err := uc.users.GetMany(ctx, team.Members)
	if err != nil {
		return nil, err
	}
	return &Details{Team: team, Members: members}, nil
}

// RequireMember loads the team and checks that userID belongs to it.
func (uc *UseCase) RequireMember(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	team, err := uc.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(userID) {
		return nil, domain.ErrNotTeamMember
	}
	return team, nil
}

// RequireAdmin loads the team and checks that userID administers it.
func (uc *UseCase) RequireAdmin(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	team, err := uc.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsAdmin(userID) {
		return nil, domain.ErrNotTeamAdmin
	}
	return team, nil
}

// Create makes admin the owner and first member of a new team.
func (uc *UseCase) Create(ctx context.Context, admin *domain.User, name string) (*domain.Team, error) {
	if admin == nil {
		return nil, domain.ErrUnauthorized
	}
	team := &domain.Team{
		Name:    strings.TrimSpace(name),
		AdminID: admin.ID,
		Members: []string{admin.ID},
	}
	if err := team.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Team
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		var err error
		if created, err = uc.teams.Create(ctx, team); err != nil {
			return err
		}
		return usecase.Publish(ctx, uc.events, domain.Event{
			Kind:    domain.EventTeamSaving,
			Actor:   admin,
			Created: true,
			Team:    created,
			At:      uc.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("team created", zap.String("team_id", created.ID), zap.String("admin_id", admin.ID))
	return created, nil
}

// Delete removes the team and its tasks. The deletions are announced before the rows
// disappear so observers still see the data.
func (uc *UseCase) Delete(ctx context.Context, actor *domain.User, teamID string) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	return uc.withinTx(ctx, func(ctx context.Context) error {
		team, err := uc.RequireAdmin(ctx, teamID, actor.ID)
		if err != nil {
			return err
		}
		tasks, err := uc.tasks.List(ctx, repository.TaskFilter{TeamIDs: []string{team.ID}})
		if err != nil {
			return err
		}

		at := uc.clock.Now()
		if err := usecase.Publish(ctx, uc.events, domain.Event{
			Kind:  domain.EventTeamDeleting,
			Actor: actor,
			Team:  team,
			At:    at,
		}); err != nil {
			return err
		}
		for i := range tasks {
			if err := usecase.Publish(ctx, uc.events, domain.Event{
				Kind:  domain.EventTaskDeleting,
				Actor: actor,
				Team:  team,
				Task:  &tasks[i],
				At:    at,
			}); err != nil {
				return err
			}
		}
		return uc.teams.Delete(ctx, team.ID)
	})
}

// AddMember adds the user with the given username to the team.
func (uc *UseCase) AddMember(ctx context.Context, actor *domain.User, teamID, username string) (*domain.Team, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var team *domain.Team
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		var err error
		if team, err = uc.RequireAdmin(ctx, teamID, actor.ID); err != nil {
			return err
		}
		member, err := uc.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if team.HasMember(member.ID) {
			return nil
		}
		if err := uc.teams.AddMembers(ctx, team.ID, []string{member.ID}); err != nil {
			return err
		}
		team.Members = append(team.Members, member.ID)
		return usecase.Publish(ctx, uc.events, domain.Event{
			Kind:    domain.EventTeamMembersAdded,
			Actor:   actor,
			Team:    team,
			Related: []*domain.User{member},
			At:      uc.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// RemoveMember takes the user off the team and off every task of the team. The admin
// cannot be removed.
func (uc *UseCase) RemoveMember(ctx context.Context, actor *domain.User, teamID, username string) (*domain.Team, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	var team *domain.Team
	err := uc.withinTx(ctx, func(ctx context.Context) error {
		var err error
		if team, err = uc.RequireAdmin(ctx, teamID, actor.ID); err != nil {
			return err
		}
		member, err := uc.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if team.IsAdmin(member.ID) {
			return domain.Invalidf("the team admin cannot be removed")
		}
		if !team.HasMember(member.ID) {
			return domain.ErrNotTeamMember
		}

		at := uc.clock.Now()
		tasks, err := uc.tasks.List(ctx, repository.TaskFilter{TeamIDs: []string{team.ID}, AssignedTo: member.ID})
		if err != nil {
			return err
		}
		for i := range tasks {
			if err := usecase.Publish(ctx, uc.events, domain.Event{
				Kind:    domain.EventTaskAssigneesRemoving,
				Actor:   actor,
				Team:    team,
				Task:    &tasks[i],
				Related: []*domain.User{member},
				At:      at,
			}); err != nil {
				return err
			}
			if err := uc.tasks.RemoveAssignees(ctx, tasks[i].ID, []string{member.ID}); err != nil {
				return err
			}
		}

		if err := usecase.Publish(ctx, uc.events, domain.Event{
			Kind:    domain.EventTeamMembersRemoving,
			Actor:   actor,
			Team:    team,
			Related: []*domain.User{member},
			At:      at,
		}); err != nil {
			return err
		}
		if err := uc.teams.RemoveMembers(ctx, team.ID, []string{member.ID}); err != nil {
			return err
		}
		team.Members = removeID(team.Members, member.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (uc *UseCase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.tx == nil {
		return fn(ctx)
	}
	return uc.tx.WithinTx(ctx, fn)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
