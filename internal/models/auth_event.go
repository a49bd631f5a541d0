package models

import "time"

// Audit event types.
const (
	EventRegister    = "REGISTER"
	EventLogin       = "LOGIN"
	EventLoginFailed = "LOGIN_FAILED"
	EventLogout      = "LOGOUT"
)

// AuthEvent is a single audit log entry.
type AuthEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // REGISTER | LOGIN | LOGIN_FAILED | LOGOUT
	Username    string    `json:"username"`    // subject of the event
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
