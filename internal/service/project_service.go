package service

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// ProjectService coordinates project level operations.
type ProjectService interface {
	CreateProject(ctx context.Context, actorID int64, in domain.CreateProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	UpdateProject(ctx context.Context, actorID, id int64, in domain.UpdateProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, actorID, id int64) error
}

type projectService struct {
	projects repository.ProjectRepository
}

func NewProjectService(projects repository.ProjectRepository) ProjectService {
	return &projectService{projects: projects}
}

func (s *projectService) CreateProject(ctx context.Context, actorID int64, in domain.CreateProjectInput) (*domain.Project, error) {
	in, errs := domain.ValidateCreateProject(in)
	if errs != nil {
		return nil, errs
	}

	project := &domain.Project{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   actorID,
	}
	if _, err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *projectService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.projects.List(ctx)
}

// UpdateProject applies a partial update. Only the creator may change a project.
func (s *projectService) UpdateProject(ctx context.Context, actorID, id int64, in domain.UpdateProjectInput) (*domain.Project, error) {
	in, errs := domain.ValidateUpdateProject(in)
	if errs != nil {
		return nil, errs
	}

	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.CreatedBy != actorID {
		return nil, ErrForbidden
	}
	if in.Name != nil {
		project.Name = *in.Name
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) DeleteProject(ctx context.Context, actorID, id int64) error {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if project.CreatedBy != actorID {
		return ErrForbidden
	}
	return s.projects.Delete(ctx, id)
}
