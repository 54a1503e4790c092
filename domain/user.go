package domain

import (
	"regexp"
	"strings"
	"time"
)

const (
	MaxUsernameLength = 30
	MaxNameLength     = 50
)

var (
	usernamePattern = regexp.MustCompile(`^@\w{3,}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User represents an authenticated identity in the platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validate checks the profile fields shared by sign up and profile edits.
func (u *User) Validate() error {
	if u == nil {
		return ErrInvalidPayload
	}
	switch {
	case len(u.Username) > MaxUsernameLength || !usernamePattern.MatchString(u.Username):
		return Invalidf("username must consist of @ followed by at least three alphanumericals")
	case strings.TrimSpace(u.FirstName) == "":
		return Invalidf("first name is required")
	case strings.TrimSpace(u.LastName) == "":
		return Invalidf("last name is required")
	case len(u.FirstName) > MaxNameLength || len(u.LastName) > MaxNameLength:
		return Invalidf("names must be at most %d characters", MaxNameLength)
	case !emailPattern.MatchString(u.Email):
		return Invalidf("a valid email is required")
	}
	return nil
}

// ValidatePassword enforces the password policy: an uppercase character,
// a lowercase character and a number.
func ValidatePassword(password, confirmation string) error {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return Invalidf("password must contain an uppercase character, a lowercase character and a number")
	}
	if password != confirmation {
		return Invalidf("confirmation does not match password")
	}
	return nil
}
