package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/repository/memory"
	"github.com/fastygo/teamtasks/usecase"
	"github.com/fastygo/teamtasks/usecase/activity"
)

var due = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	uc       *UseCase
	store    *memory.Store
	recorder *activity.Recorder
	team     *domain.Team
	alice    *domain.User
	bob      *domain.User
	carol    *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clk := clock.NewFixed(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	store := memory.New().WithClock(clk.Now)
	dispatcher := usecase.NewDispatcher()
	recorder := activity.New(store.Activity(), store, clk, activity.Config{}, nil)
	recorder.Register(dispatcher)

	f := &fixture{
		uc:       New(store.Tasks(), store.Teams(), store.Users(), store, dispatcher, clk, nil),
		store:    store,
		recorder: recorder,
	}
	f.alice = f.user(t, "@alice")
	f.bob = f.user(t, "@bob")
	f.carol = f.user(t, "@carol")

	team, err := store.Teams().Create(ctx, &domain.Team{Name: "Core", AdminID: f.alice.ID, Members: []string{f.alice.ID, f.bob.ID}})
	if err != nil {
		t.Fatalf("team: %v", err)
	}
	f.team = team
	return f
}

func (f *fixture) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, FirstName: "F", LastName: "L", Email: username[1:] + "@example.com"}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) log(t *testing.T, userID string) []string {
	t.Helper()
	log, err := f.recorder.Log(context.Background(), userID)
	if errors.Is(err, domain.ErrActivityNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	out := make([]string, 0, log.Len())
	for _, e := range log.Entries {
		out = append(out, e.Message)
	}
	return out
}

func assertLog(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, f.bob, f.team.ID, Input{Title: "Write report", Description: "draft", DueDate: due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != domain.PriorityMedium {
		t.Fatalf("priority should default to medium, got %q", created.Priority)
	}

	_, err = f.uc.Update(ctx, f.bob, created.ID, Input{
		Title:       "Ship report",
		Description: "draft",
		DueDate:     due.AddDate(0, 0, 2),
		Priority:    domain.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, _ := f.store.Tasks().GetByID(ctx, created.ID)
	if stored.Title != "Ship report" || stored.Priority != domain.PriorityHigh {
		t.Fatalf("update not persisted: %+v", stored)
	}
	assertLog(t, f.log(t, f.bob.ID),
		"@bob created a new task with title 'Write report'",
		"@bob changed task 'Write report's title to Ship report",
		"@bob updated task 'Write report's due date to 2024-03-12",
	)
}

func TestCreateRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), f.carol, f.team.ID, Input{Title: "Sneaky", DueDate: due})
	if !errors.Is(err, domain.ErrNotTeamMember) {
		t.Fatalf("expected ErrNotTeamMember, got %v", err)
	}
	if got := f.log(t, f.carol.ID); len(got) != 0 {
		t.Fatalf("rejected create must not be journaled: %q", got)
	}
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), f.bob, f.team.ID, Input{Title: "Plan", DueDate: due, ReminderDays: intPtr(-1)})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID, got %v", err)
	}
}

func TestSetAssigneesDiffs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, _ := f.uc.Create(ctx, f.alice, f.team.ID, Input{Title: "Plan", DueDate: due})

	task, err := f.uc.SetAssignees(ctx, f.alice, created.ID, []string{"@alice", "@bob"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !task.IsAssigned(f.alice.ID) || !task.IsAssigned(f.bob.ID) {
		t.Fatalf("unexpected assignees %v", task.AssignedTo)
	}

	task, err = f.uc.SetAssignees(ctx, f.alice, created.ID, []string{"@bob"})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if task.IsAssigned(f.alice.ID) || !task.IsAssigned(f.bob.ID) {
		t.Fatalf("unexpected assignees %v", task.AssignedTo)
	}

	if _, err := f.uc.SetAssignees(ctx, f.alice, created.ID, []string{"@carol"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("non-members cannot be assigned, got %v", err)
	}

	assertLog(t, f.log(t, f.alice.ID),
		"@alice created a new task with title 'Plan'",
		"@alice assigned @alice to the task 'Plan'",
		"@alice assigned @bob to the task 'Plan'",
		"@alice removed @alice from the task 'Plan'",
	)
}

func TestToggleCompletionPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, _ := f.uc.Create(ctx, f.alice, f.team.ID, Input{Title: "Plan", DueDate: due})

	if _, err := f.uc.ToggleCompletion(ctx, f.bob, created.ID); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("unassigned member must not toggle, got %v", err)
	}

	task, err := f.uc.ToggleCompletion(ctx, f.alice, created.ID)
	if err != nil {
		t.Fatalf("admin toggle: %v", err)
	}
	if !task.Completed {
		t.Fatalf("task should be completed")
	}

	if _, err := f.uc.SetAssignees(ctx, f.alice, created.ID, []string{"@bob"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	task, err = f.uc.ToggleCompletion(ctx, f.bob, created.ID)
	if err != nil {
		t.Fatalf("assignee toggle: %v", err)
	}
	if task.Completed {
		t.Fatalf("task should be incomplete again")
	}

	bobLog := f.log(t, f.bob.ID)
	assertLog(t, bobLog, "@bob marked 'Plan' as Incomplete")
}

func TestDeleteLogsBeforeRemoving(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, _ := f.uc.Create(ctx, f.bob, f.team.ID, Input{Title: "Plan", DueDate: due})

	if err := f.uc.Delete(ctx, f.bob, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.store.Tasks().GetByID(ctx, created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("task should be gone, got %v", err)
	}
	assertLog(t, f.log(t, f.bob.ID),
		"@bob created a new task with title 'Plan'",
		"@bob deleted task Plan",
	)
}

func TestListFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, title := range []string{"Late", "Early", "Middle"} {
		offsets := []int{5, 1, 3}
		in := Input{Title: title, DueDate: due.AddDate(0, 0, offsets[i])}
		if i == 1 {
			in.Priority = domain.PriorityHigh
		}
		if _, err := f.uc.Create(ctx, f.bob, f.team.ID, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	sorted, err := f.uc.List(ctx, f.bob.ID, f.team.ID, repository.TaskFilter{Sort: repository.SortDueAsc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sorted) != 3 || sorted[0].Title != "Early" || sorted[2].Title != "Late" {
		t.Fatalf("unexpected order %+v", sorted)
	}

	high, _ := f.uc.List(ctx, f.bob.ID, f.team.ID, repository.TaskFilter{Priority: domain.PriorityHigh})
	if len(high) != 1 || high[0].Title != "Early" {
		t.Fatalf("priority filter failed: %+v", high)
	}

	if _, err := f.uc.List(ctx, f.carol.ID, f.team.ID, repository.TaskFilter{}); !errors.Is(err, domain.ErrNotTeamMember) {
		t.Fatalf("expected ErrNotTeamMember, got %v", err)
	}
}

func intPtr(n int) *int { return &n }
