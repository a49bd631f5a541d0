package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"session_auth/internal/models"
	"session_auth/internal/repository"
)

// dummyPassword is hashed once and compared against when the username is
// unknown, so both login failures cost one bcrypt compare.
const dummyPassword = "session-auth-timing-equaliser"

// AuthService handles registration, login and session lookup.
type AuthService struct {
	users    repository.UserRepo
	sessions *SessionManager
	hasher   PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repository.UserRepo, sessions *SessionManager, hasher PasswordHasher) *AuthService {
	return &AuthService{users: users, sessions: sessions, hasher: hasher}
}

// Register hashes password and stores a new user.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, err
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return u, nil
}

// Login verifies credentials and opens a session. priorSessionID, when set,
// is destroyed first so a pre-login id never survives authentication.
func (s *AuthService) Login(ctx context.Context, username, password, priorSessionID string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingFields
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if u == nil {
		s.hasher.Verify(password, s.dummy())
		return "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	if priorSessionID != "" {
		if _, err := s.sessions.Destroy(ctx, priorSessionID); err != nil {
			return "", err
		}
	}
	return s.sessions.Create(ctx, u.Username)
}

// Logout destroys sessionID. An already absent session is a success.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	_, err := s.sessions.Destroy(ctx, sessionID)
	return err
}

// WhoAmI resolves sessionID to its username.
func (s *AuthService) WhoAmI(ctx context.Context, sessionID string) (string, error) {
	username, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return username, nil
}

func (s *AuthService) ListUsernames(ctx context.Context) ([]string, error) {
	names, err := s.users.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return names, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		// a failed hash leaves "" which Verify rejects
		s.dummyHash, _ = s.hasher.Hash(dummyPassword)
	})
	return s.dummyHash
}
