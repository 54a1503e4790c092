package domain

import (
	"strings"
	"time"
)

// Priority orders tasks for display and notification wording.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	MaxTaskTitleLength       = 30
	MaxTaskDescriptionLength = 300
)

// Rank returns the sort rank of a priority: high=1, medium=2, low=3.
// Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Label is the capitalized form used in user-facing text.
func (p Priority) Label() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePriority maps free-form input onto a priority, defaulting to medium when blank.
func ParsePriority(value string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(value)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.Valid() {
		return "", Invalidf("unknown priority %q", value)
	}
	return p, nil
}

// Task is a unit of work owned by a team and assigned to zero or more users.
type Task struct {
	ID           string    `json:"id"`
	TeamID       string    `json:"team_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	DueDate      time.Time `json:"due_date"`
	Priority     Priority  `json:"priority"`
	Completed    bool      `json:"completed"`
	Seen         bool      `json:"seen"`
	ReminderDays *int      `json:"reminder_days,omitempty"`
	AssignedTo   []string  `json:"assigned_to"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the invariants enforced at the form boundary.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	title := strings.TrimSpace(t.Title)
	switch {
	case title == "":
		return Invalidf("title is required")
	case len(title) > MaxTaskTitleLength:
		return Invalidf("title must be at most %d characters", MaxTaskTitleLength)
	case len(t.Description) > MaxTaskDescriptionLength:
		return Invalidf("description must be at most %d characters", MaxTaskDescriptionLength)
	case t.DueDate.IsZero():
		return Invalidf("due date is required")
	case !t.Priority.Valid():
		return Invalidf("unknown priority %q", t.Priority)
	case t.ReminderDays != nil && *t.ReminderDays < 0:
		return Invalidf("reminder days must not be negative")
	}
	return nil
}

// IsDueSoon reports whether the task falls inside its reminder window.
// The window is the half-open interval [today, today+reminderDays+1day):
// a window of 0 only matches tasks due today, past due dates never match.
func (t *Task) IsDueSoon(today time.Time) bool {
	if t == nil || t.ReminderDays == nil || t.Completed {
		return false
	}
	today = DateOf(today)
	due := DateOf(t.DueDate)
	remindUntil := today.AddDate(0, 0, *t.ReminderDays+1)
	return !due.Before(today) && due.Before(remindUntil)
}

// IsHighPriorityDueSoon is IsDueSoon restricted to high priority tasks.
func (t *Task) IsHighPriorityDueSoon(today time.Time) bool {
	return t != nil && t.Priority == PriorityHigh && t.IsDueSoon(today)
}

// IsOtherPriorityDueSoon is IsDueSoon restricted to medium and low priority tasks.
func (t *Task) IsOtherPriorityDueSoon(today time.Time) bool {
	return t != nil && t.Priority != PriorityHigh && t.IsDueSoon(today)
}

// MarkSeen flips the seen flag on. It reports whether the flag changed.
func (t *Task) MarkSeen() bool {
	if t == nil || t.Seen {
		return false
	}
	t.Seen = true
	return true
}

// IsAssigned reports whether userID is among the task's assignees.
func (t *Task) IsAssigned(userID string) bool {
	if t == nil {
		return false
	}
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// CompletionLabel is the human label for the completion flag.
func CompletionLabel(completed bool) string {
	if completed {
		return "Complete"
	}
	return "Incomplete"
}

// Clone returns a deep copy so callers can diff against persisted state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.ReminderDays != nil {
		days := *t.ReminderDays
		c.ReminderDays = &days
	}
	c.AssignedTo = append([]string(nil), t.AssignedTo...)
	return &c
}
