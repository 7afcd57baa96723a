package domain

import "time"

// Project groups tasks under a name.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
