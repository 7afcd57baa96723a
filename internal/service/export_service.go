package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/storage"
)

const defaultExportURLTTL = 15 * time.Minute

// ExportConfig points exports at a bucket.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportResult describes an uploaded project snapshot.
type ExportResult struct {
	Key       string
	Location  string
	URL       string
	ExpiresAt time.Time
}

// ExportService writes JSON snapshots of projects to object storage.
type ExportService interface {
	Enabled() bool
	ExportProject(ctx context.Context, projectID int64) (*ExportResult, error)
	ListExports(ctx context.Context, projectID int64) ([]storage.ObjectInfo, error)
	PurgeExports(ctx context.Context, projectID int64) error
}

type exportService struct {
	cfg      ExportConfig
	store    storage.Service
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	comments repository.TaskCommentRepository
	now      func() time.Time
}

// NewExportService returns a service that reports ErrExportsDisabled when store is nil or
// no bucket is configured.
func NewExportService(cfg ExportConfig, store storage.Service, projects repository.ProjectRepository, tasks repository.TaskRepository, comments repository.TaskCommentRepository) ExportService {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = defaultExportURLTTL
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{
		cfg:      cfg,
		store:    store,
		projects: projects,
		tasks:    tasks,
		comments: comments,
		now:      time.Now,
	}
}

type projectSnapshot struct {
	ExportedAt  time.Time      `json:"exported_at"`
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedBy   int64          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Tasks       []taskSnapshot `json:"tasks"`
}

type taskSnapshot struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	CreatedBy   int64                `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	Comments    []domain.TaskComment `json:"comments"`
}

func (s *exportService) Enabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *exportService) ExportProject(ctx context.Context, projectID int64) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, ErrExportsDisabled
	}

	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := projectSnapshot{
		ExportedAt:  now,
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedBy:   project.CreatedBy,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Tasks:       make([]taskSnapshot, 0, len(tasks)),
	}
	for _, t := range tasks {
		comments, err := s.comments.ListByTask(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		snap.Tasks = append(snap.Tasks, taskSnapshot{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			CreatedBy:   t.CreatedBy,
			CreatedAt:   t.CreatedAt,
			Comments:    comments,
		})
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := path.Join(s.projectPrefix(projectID), fmt.Sprintf("%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.store.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Key:       key,
		Location:  location,
		URL:       url,
		ExpiresAt: now.Add(s.cfg.URLTTL),
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, projectID int64) ([]storage.ObjectInfo, error) {
	if !s.Enabled() {
		return nil, ErrExportsDisabled
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListObjects(ctx, s.cfg.Bucket, s.projectPrefix(projectID)+"/")
}

// PurgeExports deletes every stored snapshot of the project. It is a no-op when exports
// are disabled.
func (s *exportService) PurgeExports(ctx context.Context, projectID int64) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.DeletePrefix(ctx, s.cfg.Bucket, s.projectPrefix(projectID)+"/")
}

func (s *exportService) projectPrefix(projectID int64) string {
	return path.Join(s.cfg.KeyPrefix, "projects", fmt.Sprint(projectID))
}
