package models

import "time"

// Session is the server-side half of a login. Only the SHA-256 of the
// cookie value is stored; the plaintext id never touches the store.
type Session struct {
	TokenHash  string    `json:"-"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the session is past its absolute lifetime or
// has been idle for longer than idle at time t.
func (s *Session) ExpiredAt(t time.Time, idle time.Duration) bool {
	if !t.Before(s.ExpiresAt) {
		return true
	}
	return idle > 0 && t.Sub(s.LastSeenAt) >= idle
}
