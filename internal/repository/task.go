package repository

import (
	"context"

	"taskboard/internal/domain"
)

// TaskRepository exposes persistence operations for tasks.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.Task, error)
}

// TaskCommentRepository manages comments attached to tasks.
type TaskCommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.TaskComment) (int64, error)
	Update(ctx context.Context, comment *domain.TaskComment) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.TaskComment, error)
	ListByTask(ctx context.Context, taskID int64) ([]domain.TaskComment, error)
}
