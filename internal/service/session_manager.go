package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"session_auth/internal/models"
	"session_auth/internal/repository"
)

const sessionIDBytes = 32

// DestroyResult tells whether Destroy removed a live session.
type DestroyResult int

const (
	Destroyed DestroyResult = iota
	AlreadyAbsent
)

func (r DestroyResult) String() string {
	if r == Destroyed {
		return "destroyed"
	}
	return "already_absent"
}

// SessionOptions bounds the lifetime of a session. Zero values disable the limit.
type SessionOptions struct {
	IdleTimeout time.Duration
	MaxLifetime time.Duration
}

// SessionManager issues, resolves and destroys opaque session ids.
type SessionManager struct {
	repo repository.SessionRepo
	opts SessionOptions
	now  func() time.Time
}

func NewSessionManager(repo repository.SessionRepo, opts SessionOptions) *SessionManager {
	return &SessionManager{repo: repo, opts: opts, now: time.Now}
}

// Create binds a fresh session id to principal.
func (m *SessionManager) Create(ctx context.Context, principal string) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionStore, err)
	}

	now := m.now().UTC()
	expires := now.Add(m.opts.MaxLifetime)
	if m.opts.MaxLifetime <= 0 {
		// far enough that only the idle timeout applies
		expires = now.AddDate(100, 0, 0)
	}

	err = m.repo.Create(ctx, models.Session{
		TokenHash:  hashSessionID(id),
		Username:   principal,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  expires,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create: %w", ErrSessionStore, err)
	}
	return id, nil
}

// Resolve returns the principal bound to sessionID and slides its idle window.
// Unknown, destroyed and expired ids all yield ErrSessionNotFound.
func (m *SessionManager) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrSessionNotFound
	}
	hash := hashSessionID(sessionID)

	s, err := m.repo.Get(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("%w: get: %w", ErrSessionStore, err)
	}
	if s == nil {
		return "", ErrSessionNotFound
	}

	now := m.now().UTC()
	if s.ExpiredAt(now, m.opts.IdleTimeout) {
		// best effort, the janitor catches what this misses
		_, _ = m.repo.Delete(ctx, hash)
		return "", ErrSessionNotFound
	}

	if err := m.repo.Touch(ctx, hash, now); err != nil {
		return "", fmt.Errorf("%w: touch: %w", ErrSessionStore, err)
	}
	return s.Username, nil
}

// Destroy removes sessionID. Destroying an absent session is not an error.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) (DestroyResult, error) {
	if sessionID == "" {
		return AlreadyAbsent, nil
	}
	removed, err := m.repo.Delete(ctx, hashSessionID(sessionID))
	if err != nil {
		return AlreadyAbsent, fmt.Errorf("%w: delete: %w", ErrSessionStore, err)
	}
	if !removed {
		return AlreadyAbsent, nil
	}
	return Destroyed, nil
}

// PurgeExpired deletes every session past its lifetime or idle window.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	now := m.now().UTC()
	idleCutoff := time.Time{}
	if m.opts.IdleTimeout > 0 {
		idleCutoff = now.Add(-m.opts.IdleTimeout)
	}
	n, err := m.repo.DeleteExpired(ctx, now, idleCutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %w", ErrSessionStore, err)
	}
	return n, nil
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashSessionID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
