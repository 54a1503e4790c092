package transport

import (
	"encoding/json"
	"strings"

	"github.com/fastygo/teamtasks/domain"
)

type SignUpRequest struct {
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type PasswordChangeRequest struct {
	Current      string `json:"current_password"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type TeamRequest struct {
	Name string `json:"name"`
}

type MemberRequest struct {
	Username string `json:"username"`
}

// TaskRequest is the editable task payload. DueDate uses domain.DateLayout.
type TaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DueDate      string `json:"due_date"`
	Priority     string `json:"priority"`
	ReminderDays *int   `json:"reminder_days"`
}

type AssigneesRequest struct {
	Usernames []string `json:"usernames"`
}

// TimeRequest carries one time submission. Omitted parts count as zero.
type TimeRequest struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

func (r TimeRequest) Submission() domain.TimeSubmission {
	return domain.TimeSubmission{Hours: r.Hours, Minutes: r.Minutes, Seconds: r.Seconds}
}

// Decode unmarshals body into dst, mapping malformed JSON to an INVALID error.
func Decode(body []byte, dst interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.ErrInvalidPayload
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	return nil
}
