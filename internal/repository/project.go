package repository

import (
	"context"

	"taskboard/internal/domain"
)

// ProjectRepository exposes persistence operations for projects.
type ProjectRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, project *domain.Project) (int64, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
}
