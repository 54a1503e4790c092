package domain

import "time"

// EventKind names an entity lifecycle hook.
type EventKind string

const (
	EventUserLoggedIn          EventKind = "user.logged_in"
	EventUserLoggedOut         EventKind = "user.logged_out"
	EventUserSaved             EventKind = "user.saved"
	EventTeamSaving            EventKind = "team.saving"
	EventTeamDeleting          EventKind = "team.deleting"
	EventTeamMembersAdded      EventKind = "team.members_added"
	EventTeamMembersRemoving   EventKind = "team.members_removing"
	EventTaskSaving            EventKind = "task.saving"
	EventTaskDeleting          EventKind = "task.deleting"
	EventTaskAssigneesAdded    EventKind = "task.assignees_added"
	EventTaskAssigneesRemoving EventKind = "task.assignees_removing"
)

// Event describes one lifecycle transition. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Actor is the user the change is attributed to. When nil the actor is
	// taken from the context the event is published with.
	Actor *User
	// Subject is the user an authentication or profile event is about.
	Subject *User
	// Created distinguishes creation from update on save hooks.
	Created bool
	Team    *Team
	Task    *Task
	// Previous is the persisted task state before an update.
	Previous *Task
	// Related lists the users added or removed by a relation change, in relation order.
	Related []*User
	At      time.Time
}
