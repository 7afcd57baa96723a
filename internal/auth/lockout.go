package auth

import (
	"sync"
	"time"
)

// LockoutPolicy limits failed logins per client key.
type LockoutPolicy struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

var DefaultLockoutPolicy = LockoutPolicy{
	MaxAttempts:  5,
	Window:       15 * time.Minute,
	LockDuration: 10 * time.Minute,
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Lockout tracks failed login attempts in memory. It is safe for concurrent use.
type Lockout struct {
	policy   LockoutPolicy
	now      func() time.Time
	mu        sync.Mutex
	attempts  map[string]*attemptState
	lastPrune time.Time
}

func NewLockout(policy LockoutPolicy) *Lockout {
	if policy.MaxAttempts <= 0 {
		policy = DefaultLockoutPolicy
	}
	return &Lockout{
		policy:   policy,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

// RetryAfter returns how long key stays locked; zero when it may try again.
func (l *Lockout) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.attempts[key]
	if !ok {
		return 0
	}
	now := l.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// Fail records a failed attempt and returns the attempts left before a lock.
func (l *Lockout) Fail(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.policy.Window {
		l.prune(now)
	}
	state, ok := l.attempts[key]
	if !ok || now.Sub(state.firstAttempt) > l.policy.Window || (!state.lockedUntil.IsZero() && !now.Before(state.lockedUntil)) {
		state = &attemptState{firstAttempt: now}
		l.attempts[key] = state
	}

	state.count++
	if state.count >= l.policy.MaxAttempts {
		state.lockedUntil = now.Add(l.policy.LockDuration)
		state.count = l.policy.MaxAttempts
	}
	return l.policy.MaxAttempts - state.count
}

// prune drops entries whose window and lock have both ended. Callers hold l.mu.
func (l *Lockout) prune(now time.Time) {
	for key, state := range l.attempts {
		if now.Sub(state.firstAttempt) > l.policy.Window && !now.Before(state.lockedUntil) {
			delete(l.attempts, key)
		}
	}
	l.lastPrune = now
}

// Reset forgets key after a successful login.
func (l *Lockout) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}
