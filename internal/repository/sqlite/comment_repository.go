package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const createTaskCommentsTable = `
CREATE TABLE IF NOT EXISTS task_comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id INTEGER NOT NULL,
	comment TEXT NOT NULL,
	created_by INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	last_updated_by INTEGER NOT NULL,
	last_updated_at DATETIME NOT NULL,
	FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE,
	FOREIGN KEY(created_by) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(last_updated_by) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_task_comments_task_id ON task_comments(task_id);
`

type TaskCommentRepository struct {
	db *sql.DB
}

func NewTaskCommentRepository(db *sql.DB) repository.TaskCommentRepository {
	return &TaskCommentRepository{db: db}
}

func (r *TaskCommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTaskCommentsTable); err != nil {
		return fmt.Errorf("create task_comments table: %w", err)
	}
	return nil
}

func (r *TaskCommentRepository) Create(ctx context.Context, comment *domain.TaskComment) (int64, error) {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.LastUpdatedBy = comment.CreatedBy
	comment.LastUpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO task_comments (task_id, comment, created_by, created_at, last_updated_by, last_updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		comment.TaskID,
		comment.Comment,
		comment.CreatedBy,
		comment.CreatedAt,
		comment.LastUpdatedBy,
		comment.LastUpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("comment last insert id: %w", err)
	}
	comment.ID = id
	return id, nil
}

// Update stores the new text and stamps the editor. LastUpdatedBy must be set by the caller.
func (r *TaskCommentRepository) Update(ctx context.Context, comment *domain.TaskComment) error {
	comment.LastUpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE task_comments
SET comment=?, last_updated_by=?, last_updated_at=?
WHERE id=?`,
		comment.Comment,
		comment.LastUpdatedBy,
		comment.LastUpdatedAt,
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return checkAffected(res, "comment")
}

func (r *TaskCommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_comments WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return checkAffected(res, "comment")
}

func (r *TaskCommentRepository) Get(ctx context.Context, id int64) (*domain.TaskComment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, task_id, comment, created_by, created_at, last_updated_by, last_updated_at
FROM task_comments
WHERE id=?`,
		id,
	)
	return scanComment(row)
}

func (r *TaskCommentRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.TaskComment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, task_id, comment, created_by, created_at, last_updated_by, last_updated_at
FROM task_comments
WHERE task_id=?
ORDER BY id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.TaskComment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

func scanComment(row rowScanner) (*domain.TaskComment, error) {
	var c domain.TaskComment
	if err := row.Scan(
		&c.ID,
		&c.TaskID,
		&c.Comment,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.LastUpdatedBy,
		&c.LastUpdatedAt,
	); err != nil {
		return nil, notFound(err, "comment")
	}
	return &c, nil
}
