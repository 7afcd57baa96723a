package service

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// TaskService coordinates task level operations backed by repositories.
type TaskService interface {
	CreateTask(ctx context.Context, actorID, projectID int64, in domain.CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, projectID int64) ([]domain.Task, error)
	DeleteTask(ctx context.Context, actorID, id int64) error
}

type taskService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
}

func NewTaskService(projects repository.ProjectRepository, tasks repository.TaskRepository) TaskService {
	return &taskService{
		projects: projects,
		tasks:    tasks,
	}
}

func (s *taskService) CreateTask(ctx context.Context, actorID, projectID int64, in domain.CreateTaskInput) (*domain.Task, error) {
	in, errs := domain.ValidateCreateTask(in)
	if errs != nil {
		return nil, errs
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	task := &domain.Task{
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		CreatedBy:   actorID,
	}
	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *taskService) ListTasks(ctx context.Context, projectID int64) ([]domain.Task, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

// DeleteTask removes the task and, through the schema, its comments. The task creator
// and the project owner may delete.
func (s *taskService) DeleteTask(ctx context.Context, actorID, id int64) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if task.CreatedBy != actorID {
		project, err := s.projects.Get(ctx, task.ProjectID)
		if err != nil {
			return err
		}
		if project.CreatedBy != actorID {
			return ErrForbidden
		}
	}
	return s.tasks.Delete(ctx, id)
}
