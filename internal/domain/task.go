package domain

import "time"

// Task is a unit of work inside a project.
type Task struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskComment is a note left on a task. LastUpdatedBy and LastUpdatedAt track the most
// recent edit and equal the creation values until then.
type TaskComment struct {
	ID            int64
	TaskID        int64
	Comment       string
	CreatedBy     int64
	CreatedAt     time.Time
	LastUpdatedBy int64
	LastUpdatedAt time.Time
}
