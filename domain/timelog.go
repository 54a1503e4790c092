package domain

import "time"

// TimeSpent is the running total of seconds a user spent on a task.
type TimeSpent struct {
	UserID  string `json:"user_id"`
	TaskID  string `json:"task_id"`
	Seconds int64  `json:"time_spent"`
}

// TimeLog records a single time submission. Rows are never modified.
type TimeLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Seconds   int64     `json:"logged_time"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeSubmission is the validated hours/minutes/seconds triple of one submission.
type TimeSubmission struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// MaxSubmissionSeconds bounds one submission so totals stay far from int64 overflow.
const MaxSubmissionSeconds int64 = 1 << 40

func (s TimeSubmission) Validate() error {
	if s.Hours < 0 || s.Minutes < 0 || s.Seconds < 0 {
		return Invalidf("time values must not be negative")
	}
	if s.Hours > MaxSubmissionSeconds/3600 || s.Minutes > MaxSubmissionSeconds/60 || s.Seconds > MaxSubmissionSeconds ||
		s.Total() > MaxSubmissionSeconds {
		return Invalidf("submitted time is too large")
	}
	return nil
}

// Total converts the submission into seconds.
func (s TimeSubmission) Total() int64 {
	return s.Hours*3600 + s.Minutes*60 + s.Seconds
}
