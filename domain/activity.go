package domain

import "time"

// ActivityTimeLayout renders activity timestamps as day/month/year, hour:minute:second.
const ActivityTimeLayout = "02/01/2006, 15:04:05"

// ActivityEntry is one journal line.
type ActivityEntry struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Time parses the entry timestamp in loc.
func (e ActivityEntry) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(ActivityTimeLayout, e.Timestamp, loc)
}

// ActivityLog is the append-only journal of a single user, oldest entry first.
type ActivityLog struct {
	UserID    string          `json:"user_id"`
	Entries   []ActivityEntry `json:"entries"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FormatActivityTime truncates at to the second and renders it in ActivityTimeLayout.
func FormatActivityTime(at time.Time) string {
	return at.Format(ActivityTimeLayout)
}

// Append adds a line stamped with at.
func (l *ActivityLog) Append(message string, at time.Time) {
	l.Entries = append(l.Entries, ActivityEntry{Message: message, Timestamp: FormatActivityTime(at)})
}

// Last returns the most recent entry.
func (l *ActivityLog) Last() (ActivityEntry, bool) {
	if l == nil || len(l.Entries) == 0 {
		return ActivityEntry{}, false
	}
	return l.Entries[len(l.Entries)-1], true
}

// PopLast retracts the most recent entry.
func (l *ActivityLog) PopLast() {
	if l == nil || len(l.Entries) == 0 {
		return
	}
	l.Entries = l.Entries[:len(l.Entries)-1]
}

// Len returns the number of entries.
func (l *ActivityLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// Reversed returns a most-recent-first copy of the entries.
func (l *ActivityLog) Reversed() []ActivityEntry {
	if l == nil {
		return nil
	}
	out := make([]ActivityEntry, len(l.Entries))
	for i, e := range l.Entries {
		out[len(l.Entries)-1-i] = e
	}
	return out
}
