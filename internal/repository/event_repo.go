package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"session_auth/internal/models"

	"github.com/google/uuid"
)

type EventSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewEventSQL(db *sql.DB, dialect Dialect) *EventSQL { return &EventSQL{db: db, dialect: dialect} }

var _ EventRepo = (*EventSQL)(nil)

const insertEventSQL = `
		INSERT INTO auth_events (id, occurred_at, type, username, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *EventSQL) Append(ctx context.Context, e models.AuthEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertEventSQL),
		e.EventID,
		e.OccurredAt.Unix(),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Username,
		e.Description,
		metaPtr,
	)
	return err
}

// List returns the user's events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *EventSQL) List(ctx context.Context, username string, from, to time.Time, typ string) ([]models.AuthEvent, error) {
	conds := []string{"username = ?"}
	args := []any{username}

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.Unix())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, type, username, message, meta FROM auth_events`
	q += " WHERE " + strings.Join(conds, " AND ")
	q += " ORDER BY occurred_at ASC, seq ASC"

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.AuthEvent, 0, 64)
	for rows.Next() {
		var (
			ev       models.AuthEvent
			occurred int64
			metaStr  sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &occurred, &ev.Type, &ev.Username, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = time.Unix(occurred, 0).UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
