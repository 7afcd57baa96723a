package service

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// CommentService manages comments on tasks.
type CommentService interface {
	AddComment(ctx context.Context, actorID, taskID int64, in domain.CommentInput) (*domain.TaskComment, error)
	ListComments(ctx context.Context, taskID int64) ([]domain.TaskComment, error)
	EditComment(ctx context.Context, actorID, id int64, in domain.CommentInput) (*domain.TaskComment, error)
	DeleteComment(ctx context.Context, actorID, id int64) error
}

type commentService struct {
	tasks    repository.TaskRepository
	comments repository.TaskCommentRepository
}

func NewCommentService(tasks repository.TaskRepository, comments repository.TaskCommentRepository) CommentService {
	return &commentService{
		tasks:    tasks,
		comments: comments,
	}
}

func (s *commentService) AddComment(ctx context.Context, actorID, taskID int64, in domain.CommentInput) (*domain.TaskComment, error) {
	in, errs := domain.ValidateComment(in)
	if errs != nil {
		return nil, errs
	}
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}

	comment := &domain.TaskComment{
		TaskID:    taskID,
		Comment:   in.Comment,
		CreatedBy: actorID,
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) ListComments(ctx context.Context, taskID int64) ([]domain.TaskComment, error) {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

// EditComment replaces the text and records actorID as the last editor.
func (s *commentService) EditComment(ctx context.Context, actorID, id int64, in domain.CommentInput) (*domain.TaskComment, error) {
	in, errs := domain.ValidateComment(in)
	if errs != nil {
		return nil, errs
	}

	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comment.Comment = in.Comment
	comment.LastUpdatedBy = actorID
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment. Only its author may do so.
func (s *commentService) DeleteComment(ctx context.Context, actorID, id int64) error {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return err
	}
	if comment.CreatedBy != actorID {
		return ErrForbidden
	}
	return s.comments.Delete(ctx, id)
}
