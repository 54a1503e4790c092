package domain

import "time"

// Session is one login. Token is the signed access token bound to it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSession(id, userID string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Renew pushes the expiry to now+ttl.
func (s *Session) Renew(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.Add(ttl)
}

// TTL is the time left before expiry, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	if s == nil || !s.ExpiresAt.After(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}
