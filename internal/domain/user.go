package domain

import "time"

// User represents an account that can sign in and author comments.
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	Name          string
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// Principal is the identity attached to an authenticated request.
type Principal struct {
	UserID    int64
	Email     string
	Name      string
	SessionID string
}
