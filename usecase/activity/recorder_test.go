package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/actor"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/repository/memory"
	"github.com/fastygo/teamtasks/usecase"
)

var start = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

func newRecorder(t *testing.T) (*Recorder, *memory.Store, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(start)
	store := memory.New().WithClock(clk.Now)
	return New(store.Activity(), store, clk, Config{}, nil), store, clk
}

func messages(t *testing.T, r *Recorder, userID string) []string {
	t.Helper()
	log, err := r.Log(context.Background(), userID)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	out := make([]string, 0, log.Len())
	for _, entry := range log.Entries {
		out = append(out, entry.Message)
	}
	return out
}

func assertMessages(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries %q, got %d %q", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRecordKeepsAppendOrder(t *testing.T) {
	r, _, _ := newRecorder(t)
	alice := &domain.User{ID: "u1", Username: "@alice"}
	ctx := context.Background()

	if err := r.Record(ctx, alice, start, "first"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.Record(ctx, alice, start.Add(time.Minute), "second"); err != nil {
		t.Fatalf("record: %v", err)
	}

	log, err := r.Log(ctx, alice.ID)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	assertMessages(t, messages(t, r, alice.ID), []string{"first", "second"})
	if log.Entries[0].Timestamp != "05/03/2024, 09:30:00" {
		t.Fatalf("unexpected timestamp %q", log.Entries[0].Timestamp)
	}
	if log.Entries[1].Timestamp != "05/03/2024, 09:31:00" {
		t.Fatalf("unexpected timestamp %q", log.Entries[1].Timestamp)
	}
}

func TestLogMissingUser(t *testing.T) {
	r, _, _ := newRecorder(t)
	if _, err := r.Log(context.Background(), "nobody"); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestLoginDedup(t *testing.T) {
	cases := []struct {
		name  string
		delay time.Duration
		want  []string
	}{
		{"within window", 1500 * time.Millisecond, []string{"@alice has logged in"}},
		{"same second", 0, []string{"@alice has logged in"}},
		{"at window", 2 * time.Second, []string{"@alice edited their user details", "@alice has logged in"}},
		{"after window", 10 * time.Second, []string{"@alice edited their user details", "@alice has logged in"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _, _ := newRecorder(t)
			ctx := context.Background()
			alice := &domain.User{ID: "u1", Username: "@alice"}

			if err := r.Handle(ctx, domain.Event{Kind: domain.EventUserSaved, Subject: alice, At: start}); err != nil {
				t.Fatalf("saved: %v", err)
			}
			if err := r.Handle(ctx, domain.Event{Kind: domain.EventUserLoggedIn, Subject: alice, At: start.Add(tc.delay)}); err != nil {
				t.Fatalf("login: %v", err)
			}
			assertMessages(t, messages(t, r, alice.ID), tc.want)
		})
	}
}

func TestLoginOnEmptyLog(t *testing.T) {
	r, _, _ := newRecorder(t)
	alice := &domain.User{ID: "u1", Username: "@alice"}
	if err := r.Handle(context.Background(), domain.Event{Kind: domain.EventUserLoggedIn, Subject: alice}); err != nil {
		t.Fatalf("login: %v", err)
	}
	assertMessages(t, messages(t, r, alice.ID), []string{"@alice has logged in"})
}

func TestTaskDiffOrder(t *testing.T) {
	r, _, _ := newRecorder(t)
	bob := &domain.User{ID: "u2", Username: "@bob"}
	before := &domain.Task{
		Title:       "Write report",
		Description: "draft",
		DueDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	after := before.Clone()
	after.Title = "Ship report"
	after.Description = "final"
	after.DueDate = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	after.Completed = true

	err := r.Handle(context.Background(), domain.Event{
		Kind:     domain.EventTaskSaving,
		Actor:    bob,
		Task:     after,
		Previous: before,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	assertMessages(t, messages(t, r, bob.ID), []string{
		"@bob changed task 'Write report's title to Ship report",
		"@bob changed task 'Write report's description to final",
		"@bob updated task 'Write report's due date to 2024-03-12",
		"@bob marked 'Write report' as Complete",
	})
	log, _ := r.Log(context.Background(), bob.ID)
	for _, entry := range log.Entries {
		if entry.Timestamp != log.Entries[0].Timestamp {
			t.Fatalf("entries of one save must share a timestamp: %+v", log.Entries)
		}
	}
}

func TestUnchangedTaskRecordsNothing(t *testing.T) {
	r, _, _ := newRecorder(t)
	bob := &domain.User{ID: "u2", Username: "@bob"}
	task := &domain.Task{Title: "Same", DueDate: start}

	if err := r.Handle(context.Background(), domain.Event{Kind: domain.EventTaskSaving, Actor: bob, Task: task.Clone(), Previous: task}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := r.Log(context.Background(), bob.ID); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected no log, got %v", err)
	}
}

func TestMembershipFanOut(t *testing.T) {
	r, _, _ := newRecorder(t)
	admin := &domain.User{ID: "u1", Username: "@alice"}
	team := &domain.Team{ID: "t1", Name: "Core", AdminID: admin.ID}
	related := []*domain.User{
		{ID: "u2", Username: "@bob"},
		{ID: "u3", Username: "@carol"},
	}
	ctx := context.Background()

	if err := r.Handle(ctx, domain.Event{Kind: domain.EventTeamMembersAdded, Actor: admin, Team: team, Related: related}); err != nil {
		t.Fatalf("added: %v", err)
	}
	if err := r.Handle(ctx, domain.Event{Kind: domain.EventTeamMembersRemoving, Actor: admin, Team: team, Related: related[1:]}); err != nil {
		t.Fatalf("removing: %v", err)
	}

	assertMessages(t, messages(t, r, admin.ID), []string{
		"@alice added @bob to 'Core'",
		"@alice added @carol to 'Core'",
		"@alice removed @carol from 'Core'",
	})
}

func TestTeamCreationOnlyForAdmin(t *testing.T) {
	r, _, _ := newRecorder(t)
	admin := &domain.User{ID: "u1", Username: "@alice"}
	other := &domain.User{ID: "u2", Username: "@bob"}
	team := &domain.Team{ID: "t1", Name: "Core", AdminID: admin.ID}
	ctx := context.Background()

	if err := r.Handle(ctx, domain.Event{Kind: domain.EventTeamSaving, Actor: other, Team: team, Created: true}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := r.Handle(ctx, domain.Event{Kind: domain.EventTeamSaving, Actor: admin, Team: team}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := r.Handle(ctx, domain.Event{Kind: domain.EventTeamSaving, Actor: admin, Team: team, Created: true}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, err := r.Log(ctx, other.ID); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("non-admin must not get an entry, got %v", err)
	}
	assertMessages(t, messages(t, r, admin.ID), []string{"@alice created a new team 'Core'"})
}

func TestActorResolution(t *testing.T) {
	r, _, _ := newRecorder(t)
	carol := &domain.User{ID: "u3", Username: "@carol"}
	task := &domain.Task{Title: "Plan"}

	if err := r.Handle(context.Background(), domain.Event{Kind: domain.EventTaskDeleting, Task: task}); err != nil {
		t.Fatalf("event without actor must be dropped silently, got %v", err)
	}
	if _, err := r.Log(context.Background(), carol.ID); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected no log, got %v", err)
	}

	ctx := actor.WithUser(context.Background(), carol)
	if err := r.Handle(ctx, domain.Event{Kind: domain.EventTaskDeleting, Task: task}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	assertMessages(t, messages(t, r, carol.ID), []string{"@carol deleted task Plan"})
}

func TestRegisterSubscribesAllKinds(t *testing.T) {
	r, _, _ := newRecorder(t)
	d := usecase.NewDispatcher()
	r.Register(d)

	alice := &domain.User{ID: "u1", Username: "@alice"}
	ctx := context.Background()
	if err := d.Publish(ctx, domain.Event{Kind: domain.EventUserSaved, Subject: alice, Created: true}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := d.Publish(ctx, domain.Event{Kind: domain.EventUserLoggedOut, Subject: alice}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	assertMessages(t, messages(t, r, alice.ID), []string{"@alice signed up", "@alice has logged out"})
}

func TestPageMostRecentFirst(t *testing.T) {
	r, _, _ := newRecorder(t)
	alice := &domain.User{ID: "u1", Username: "@alice"}
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		if err := r.Record(ctx, alice, start.Add(time.Duration(i)*time.Second), string(rune('a'+i))); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	first, err := r.Page(ctx, alice.ID, 1)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if first.Pages != 3 || first.Total != 23 || len(first.Entries) != 10 {
		t.Fatalf("unexpected first page %+v", first)
	}
	if first.Entries[0].Message != "w" || !first.HasNext || first.HasPrevious {
		t.Fatalf("first page should start with the newest entry: %+v", first)
	}

	last, err := r.Page(ctx, alice.ID, 99)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if last.Number != 3 || len(last.Entries) != 3 || last.Entries[2].Message != "a" {
		t.Fatalf("unexpected last page %+v", last)
	}
}
