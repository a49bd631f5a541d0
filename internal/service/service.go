package service

import (
	"context"
	"time"

	"session_auth/internal/models"
	"session_auth/internal/repository"
)

type Authorization interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password, priorSessionID string) (string, error)
	Logout(ctx context.Context, sessionID string) error
	WhoAmI(ctx context.Context, sessionID string) (string, error)
	ListUsernames(ctx context.Context) ([]string, error)
}

// EventLog is the append-only auth audit log.
type EventLog interface {
	Record(ctx context.Context, e models.AuthEvent) error
	List(ctx context.Context, f LogFilter) ([]models.AuthEvent, error)
}

// Janitor runs the background session sweep.
// Stop via context cancellation in main() for graceful shutdown.
type Janitor interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Authorization
	EventLog
	Janitor
}

type Options struct {
	BcryptCost int
	Session    SessionOptions
	OnPurge    PurgeObserver
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	sessions := NewSessionManager(repos.Sessions, opts.Session)
	return &Service{
		Authorization: NewAuthService(repos.Users, sessions, NewBcryptHasher(opts.BcryptCost)),
		EventLog:      NewEventLogService(repos.Events),
		Janitor:       NewJanitorService(sessions, opts.OnPurge),
	}
}
