package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const createProjectsTable = `
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_by INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(created_by) REFERENCES users(id) ON DELETE CASCADE
);
`

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) repository.ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProjectsTable); err != nil {
		return fmt.Errorf("create projects table: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (int64, error) {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO projects (name, description, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		project.Name,
		project.Description,
		project.CreatedBy,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("project last insert id: %w", err)
	}
	project.ID = id
	return id, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE projects
SET name=?, description=?, updated_at=?
WHERE id=?`,
		project.Name,
		project.Description,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return checkAffected(res, "project")
}

// Delete removes the project; tasks and their comments go with it through ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return checkAffected(res, "project")
}

func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, created_by, created_at, updated_at
FROM projects
WHERE id=?`,
		id,
	)
	return scanProject(row)
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, created_by, created_at, updated_at
FROM projects
ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.CreatedBy,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, notFound(err, "project")
	}
	return &project, nil
}
