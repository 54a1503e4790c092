package activity

import (
	"fmt"

	"github.com/fastygo/teamtasks/domain"
)

func loggedInMessage(u *domain.User) string  { return fmt.Sprintf("%s has logged in", u.Username) }
func loggedOutMessage(u *domain.User) string { return fmt.Sprintf("%s has logged out", u.Username) }
func signedUpMessage(u *domain.User) string  { return fmt.Sprintf("%s signed up", u.Username) }

func editedUserMessage(u *domain.User) string {
	return fmt.Sprintf("%s edited their user details", u.Username)
}

func teamCreatedMessage(u *domain.User, team *domain.Team) string {
	return fmt.Sprintf("%s created a new team '%s'", u.Username, team.Name)
}

func teamDeletedMessage(u *domain.User, team *domain.Team) string {
	return fmt.Sprintf("%s deleted team %s", u.Username, team.Name)
}

func memberAddedMessage(u, member *domain.User, team *domain.Team) string {
	return fmt.Sprintf("%s added %s to '%s'", u.Username, member.Username, team.Name)
}

func memberRemovedMessage(u, member *domain.User, team *domain.Team) string {
	return fmt.Sprintf("%s removed %s from '%s'", u.Username, member.Username, team.Name)
}

func taskCreatedMessage(u *domain.User, task *domain.Task) string {
	return fmt.Sprintf("%s created a new task with title '%s'", u.Username, task.Title)
}

func taskDeletedMessage(u *domain.User, task *domain.Task) string {
	return fmt.Sprintf("%s deleted task %s", u.Username, task.Title)
}

func assigneeAddedMessage(u, member *domain.User, task *domain.Task) string {
	return fmt.Sprintf("%s assigned %s to the task '%s'", u.Username, member.Username, task.Title)
}

func assigneeRemovedMessage(u, member *domain.User, task *domain.Task) string {
	return fmt.Sprintf("%s removed %s from the task '%s'", u.Username, member.Username, task.Title)
}

// taskChangeMessages compares the persisted task with the incoming one in a fixed
// field order: title, description, due date, completion.
func taskChangeMessages(u *domain.User, before, after *domain.Task) []string {
	var out []string
	if before.Title != after.Title {
		out = append(out, fmt.Sprintf("%s changed task '%s's title to %s", u.Username, before.Title, after.Title))
	}
	if before.Description != after.Description {
		out = append(out, fmt.Sprintf("%s changed task '%s's description to %s", u.Username, before.Title, after.Description))
	}
	if !domain.DateOf(before.DueDate).Equal(domain.DateOf(after.DueDate)) {
		out = append(out, fmt.Sprintf("%s updated task '%s's due date to %s", u.Username, before.Title, domain.FormatDate(after.DueDate)))
	}
	if before.Completed != after.Completed {
		out = append(out, fmt.Sprintf("%s marked '%s' as %s", u.Username, before.Title, domain.CompletionLabel(after.Completed)))
	}
	return out
}
