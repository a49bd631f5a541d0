package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"session_auth/internal/models"
)

type SessionSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewSessionSQL(db *sql.DB, dialect Dialect) *SessionSQL {
	return &SessionSQL{db: db, dialect: dialect}
}

var _ SessionRepo = (*SessionSQL)(nil)

// Timestamps are stored as unix seconds so both backends compare them the same way.
const (
	insertSessionSQL        = `INSERT INTO sessions (token_hash, username, created_at, last_seen_at, expires_at) VALUES (?, ?, ?, ?, ?)`
	selectSessionSQL        = `SELECT token_hash, username, created_at, last_seen_at, expires_at FROM sessions WHERE token_hash = ?`
	touchSessionSQL         = `UPDATE sessions SET last_seen_at = ? WHERE token_hash = ?`
	deleteSessionSQL        = `DELETE FROM sessions WHERE token_hash = ?`
	deleteExpiredSessionSQL = `DELETE FROM sessions WHERE expires_at <= ? OR last_seen_at <= ?`
)

func (r *SessionSQL) Create(ctx context.Context, s models.Session) error {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertSessionSQL),
		s.TokenHash,
		s.Username,
		s.CreatedAt.Unix(),
		s.LastSeenAt.Unix(),
		s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session for %q: %w", s.Username, err)
	}
	return nil
}

// Get returns (nil, nil) when no session has the given hash.
func (r *SessionSQL) Get(ctx context.Context, tokenHash string) (*models.Session, error) {
	var (
		s                          models.Session
		created, lastSeen, expires int64
	)
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(selectSessionSQL), tokenHash).
		Scan(&s.TokenHash, &s.Username, &created, &lastSeen, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.LastSeenAt = time.Unix(lastSeen, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	return &s, nil
}

func (r *SessionSQL) Touch(ctx context.Context, tokenHash string, lastSeen time.Time) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.rebind(touchSessionSQL), lastSeen.Unix(), tokenHash); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *SessionSQL) Delete(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(deleteSessionSQL), tokenHash)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SessionSQL) DeleteExpired(ctx context.Context, now, idleCutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(deleteExpiredSessionSQL), now.Unix(), idleCutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions rows affected: %w", err)
	}
	return n, nil
}
