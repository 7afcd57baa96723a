package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/session"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	last_seen_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

// SessionStore keeps server-side sessions in the application database.
type SessionStore struct {
	db *sql.DB
}

var (
	_ session.Store   = (*SessionStore)(nil)
	_ session.Sweeper = (*SessionStore)(nil)
)

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, created_at, last_seen_at, expires_at
FROM sessions
WHERE id=?`,
		id,
	)
	var sess domain.Session
	if err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.CreatedAt,
		&sess.LastSeenAt,
		&sess.ExpiresAt,
	); err != nil {
		return nil, notFound(err, "session")
	}
	return &sess, nil
}

// Set inserts the session or replaces its timestamps when it already exists.
func (s *SessionStore) Set(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, user_id, created_at, last_seen_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET last_seen_at=excluded.last_seen_at, expires_at=excluded.expires_at`,
		sess.ID,
		sess.UserID,
		sess.CreatedAt.UTC(),
		sess.LastSeenAt.UTC(),
		sess.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Touch updates last_seen_at on an existing row only.
func (s *SessionStore) Touch(ctx context.Context, sess *domain.Session) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at=? WHERE id=?`, sess.LastSeenAt.UTC(), sess.ID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return checkAffected(res, "session")
}

// Destroy deletes the session. Missing sessions are not an error.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DestroyExpired purges sessions whose absolute lifetime ended before now.
func (s *SessionStore) DestroyExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}
	return n, nil
}
