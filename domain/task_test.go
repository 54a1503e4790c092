package domain

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func days(n int) *int { return &n }

var today = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func TestIsDueSoon(t *testing.T) {
	cases := []struct {
		name      string
		dueOffset int
		reminder  *int
		completed bool
		want      bool
	}{
		{"due today window zero", 0, days(0), false, true},
		{"due tomorrow window zero", 1, days(0), false, false},
		{"due tomorrow window one", 1, days(1), false, true},
		{"due at window edge", 3, days(3), false, true},
		{"due past window", 4, days(3), false, false},
		{"past due", -1, days(5), false, false},
		{"no window", 0, nil, false, false},
		{"completed", 0, days(2), true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := &Task{
				DueDate:      today.AddDate(0, 0, tc.dueOffset),
				ReminderDays: tc.reminder,
				Completed:    tc.completed,
				Priority:     PriorityMedium,
			}
			if got := task.IsDueSoon(today); got != tc.want {
				t.Fatalf("IsDueSoon() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsDueSoonIgnoresTimeOfDay(t *testing.T) {
	task := &Task{DueDate: today, ReminderDays: days(0)}
	if !task.IsDueSoon(today.Add(23 * time.Hour)) {
		t.Fatalf("task due today must be due soon late in the day")
	}
}

func TestPropertyDueSoonMatchesDayDistance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		offset := rapid.IntRange(-30, 30).Draw(rt, "due_offset")
		reminder := rapid.IntRange(0, 30).Draw(rt, "reminder_days")
		completed := rapid.Bool().Draw(rt, "completed")
		priority := rapid.SampledFrom([]Priority{PriorityLow, PriorityMedium, PriorityHigh}).Draw(rt, "priority")

		task := &Task{
			DueDate:      today.AddDate(0, 0, offset),
			ReminderDays: &reminder,
			Completed:    completed,
			Priority:     priority,
		}
		want := !completed && offset >= 0 && offset <= reminder
		if got := task.IsDueSoon(today); got != want {
			rt.Fatalf("IsDueSoon(offset=%d, reminder=%d, completed=%v) = %v, want %v", offset, reminder, completed, got, want)
		}
		if task.IsHighPriorityDueSoon(today) == task.IsOtherPriorityDueSoon(today) && want {
			rt.Fatalf("a due-soon task must fall in exactly one priority tier")
		}
		if task.IsHighPriorityDueSoon(today) && priority != PriorityHigh {
			rt.Fatalf("high tier matched a %s task", priority)
		}
	})
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	task := &Task{}
	if !task.MarkSeen() {
		t.Fatalf("first MarkSeen must report a change")
	}
	if task.MarkSeen() {
		t.Fatalf("second MarkSeen must be a no-op")
	}
	if !task.Seen {
		t.Fatalf("seen flag must stay set")
	}
}

func TestTaskValidate(t *testing.T) {
	valid := func() *Task {
		return &Task{Title: "Plan", DueDate: today, Priority: PriorityLow}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	cases := map[string]func(*Task){
		"blank title":      func(t *Task) { t.Title = "  " },
		"long title":       func(t *Task) { t.Title = "0123456789012345678901234567890" },
		"no due date":      func(t *Task) { t.DueDate = time.Time{} },
		"bad priority":     func(t *Task) { t.Priority = "urgent" },
		"negative window":  func(t *Task) { t.ReminderDays = days(-1) },
		"long description": func(t *Task) { t.Description = string(make([]byte, 301)) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			task := valid()
			mutate(task)
			if err := task.Validate(); !IsDomainError(err, ErrCodeInvalid) {
				t.Fatalf("expected INVALID, got %v", err)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority(""); err != nil || p != PriorityMedium {
		t.Fatalf("blank priority should default to medium, got %q %v", p, err)
	}
	if p, err := ParsePriority(" High "); err != nil || p != PriorityHigh {
		t.Fatalf("expected high, got %q %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
	if PriorityHigh.Rank() >= PriorityMedium.Rank() || PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Fatalf("ranks must order high < medium < low")
	}
}
