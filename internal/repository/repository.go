package repository

import (
	"context"
	"database/sql"
	"time"

	"session_auth/internal/models"
)

// UserRepo is the credential store.
type UserRepo interface {
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsernames(ctx context.Context) ([]string, error)
}

// SessionRepo persists server-side sessions keyed by token hash.
type SessionRepo interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, tokenHash string) (*models.Session, error)
	Touch(ctx context.Context, tokenHash string, lastSeen time.Time) error
	// Delete reports whether a session was actually removed.
	Delete(ctx context.Context, tokenHash string) (bool, error)
	// DeleteExpired removes sessions past their lifetime or idle since before idleCutoff.
	DeleteExpired(ctx context.Context, now, idleCutoff time.Time) (int64, error)
}

// EventRepo is the append-only auth audit log.
type EventRepo interface {
	Append(ctx context.Context, e models.AuthEvent) error
	List(ctx context.Context, username string, from, to time.Time, typ string) ([]models.AuthEvent, error)
}

type Repository struct {
	Users    UserRepo
	Sessions SessionRepo
	Events   EventRepo
}

// NewRepository wires SQL-backed repositories over a shared pool.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Users:    NewUserRepository(db, dialect),
		Sessions: NewSessionSQL(db, dialect),
		Events:   NewEventSQL(db, dialect),
	}
}
