package domain

import "time"

// Session associates a cookie value with an authenticated user.
type Session struct {
	ID         string
	UserID     int64
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its absolute lifetime or has been idle
// longer than idleTimeout. A zero idleTimeout disables the idle check.
func (s *Session) Expired(now time.Time, idleTimeout time.Duration) bool {
	if s == nil {
		return true
	}
	if !now.Before(s.ExpiresAt) {
		return true
	}
	if idleTimeout > 0 && now.Sub(s.LastSeenAt) > idleTimeout {
		return true
	}
	return false
}
