package http

import (
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/storage"
)

type UserResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	CreatedAt     string `json:"created_at"`
	LastUpdatedAt string `json:"last_updated_at"`
}

type ProjectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type TaskResponse struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CommentResponse struct {
	ID            int64  `json:"id"`
	TaskID        int64  `json:"task_id"`
	Comment       string `json:"comment"`
	CreatedBy     int64  `json:"created_by"`
	CreatedAt     string `json:"created_at"`
	LastUpdatedBy int64  `json:"last_updated_by"`
	LastUpdatedAt string `json:"last_updated_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

type ExportResponse struct {
	Key       string `json:"key"`
	Location  string `json:"location"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		CreatedAt:     formatTime(u.CreatedAt),
		LastUpdatedAt: formatTime(u.LastUpdatedAt),
	}
}

func projectToResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func taskToResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func commentToResponse(c domain.TaskComment) CommentResponse {
	return CommentResponse{
		ID:            c.ID,
		TaskID:        c.TaskID,
		Comment:       c.Comment,
		CreatedBy:     c.CreatedBy,
		CreatedAt:     formatTime(c.CreatedAt),
		LastUpdatedBy: c.LastUpdatedBy,
		LastUpdatedAt: formatTime(c.LastUpdatedAt),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
