package domain

import (
	"strings"
	"time"
)

const MaxTeamNameLength = 50

// Team groups users around a shared set of tasks. AdminID owns the team.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"admin_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Team) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return Invalidf("team name is required")
	}
	if len(name) > MaxTeamNameLength {
		return Invalidf("team name must be at most %d characters", MaxTeamNameLength)
	}
	return nil
}

func (t *Team) IsAdmin(userID string) bool {
	return t != nil && userID != "" && t.AdminID == userID
}

func (t *Team) HasMember(userID string) bool {
	if t == nil {
		return false
	}
	for _, id := range t.Members {
		if id == userID {
			return true
		}
	}
	return false
}
