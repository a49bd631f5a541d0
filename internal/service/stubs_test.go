package service

import (
	"context"
	"sync"
	"time"

	"session_auth/internal/models"
)

// mockUserRepo is a lightweight in-test mock for repository.UserRepo.
type mockUserRepo struct {
	CreateFn        func(username, hash string) (*models.User, error)
	GetByUsernameFn func(username string) (*models.User, error)
	ListFn          func() ([]string, error)

	createCalls []struct {
		username string
		hash     string
	}
	getCalls []string
}

func (m *mockUserRepo) Create(ctx context.Context, username, hash string) (*models.User, error) {
	m.createCalls = append(m.createCalls, struct {
		username string
		hash     string
	}{username: username, hash: hash})
	return m.CreateFn(username, hash)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func (m *mockUserRepo) ListUsernames(ctx context.Context) ([]string, error) {
	return m.ListFn()
}

// memSessionRepo keeps sessions in a map keyed by token hash.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	touches  int

	createErr error
	getErr    error
	touchErr  error
	deleteErr error
	purgeErr  error

	purgeCalls int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]models.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, s models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.sessions[s.TokenHash] = s
	return nil
}

func (r *memSessionRepo) Get(ctx context.Context, hash string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.sessions[hash]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memSessionRepo) Touch(ctx context.Context, hash string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touchErr != nil {
		return r.touchErr
	}
	s, ok := r.sessions[hash]
	if !ok {
		return nil
	}
	s.LastSeenAt = lastSeen
	r.sessions[hash] = s
	r.touches++
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	_, ok := r.sessions[hash]
	delete(r.sessions, hash)
	return ok, nil
}

func (r *memSessionRepo) DeleteExpired(ctx context.Context, now, idleCutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeCalls++
	if r.purgeErr != nil {
		return 0, r.purgeErr
	}
	var n int64
	for k, s := range r.sessions {
		if !s.ExpiresAt.After(now) || !s.LastSeenAt.After(idleCutoff) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *memSessionRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.purgeCalls
}

// fixedClock returns a settable clock for deterministic expiry tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
