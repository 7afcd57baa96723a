// Package session keeps server-side login sessions behind an explicit store interface.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// ErrNoSession is returned by Resolve when the id is unknown or the session has expired.
var ErrNoSession = errors.New("no active session")

const (
	DefaultLifetime    = 12 * time.Hour
	DefaultIdleTimeout = 30 * time.Minute
)

// Store persists sessions by id. Get and Touch return an error wrapping
// repository.ErrNotFound for unknown ids; Destroy of an unknown id succeeds.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Set writes a new session.
	Set(ctx context.Context, s *domain.Session) error
	// Touch records s.LastSeenAt on a session that still exists. It never recreates one.
	Touch(ctx context.Context, s *domain.Session) error
	Destroy(ctx context.Context, id string) error
}

// Sweeper is implemented by stores that need expired rows purged periodically.
type Sweeper interface {
	DestroyExpired(ctx context.Context, now time.Time) (int64, error)
}

// Policy bounds how long a session stays valid.
type Policy struct {
	Lifetime    time.Duration
	IdleTimeout time.Duration
}

// Manager applies a Policy on top of a Store.
type Manager struct {
	store  Store
	policy Policy
	now    func() time.Time
}

func NewManager(store Store, policy Policy) *Manager {
	if policy.Lifetime <= 0 {
		policy.Lifetime = DefaultLifetime
	}
	if policy.IdleTimeout < 0 {
		policy.IdleTimeout = 0
	}
	return &Manager{
		store:  store,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// Create starts a new session for userID.
func (m *Manager) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := m.now()
	s := &domain.Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.policy.Lifetime),
	}
	if err := m.store.Set(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Resolve returns the live session for id and slides its idle deadline. Expired sessions
// are destroyed and reported as ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	now := m.now()
	if s.Expired(now, m.policy.IdleTimeout) {
		if err := m.store.Destroy(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNoSession
	}

	s.LastSeenAt = now
	if err := m.store.Touch(ctx, s); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return s, nil
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Destroy(ctx, id)
}

func newID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
