package models

// User is a registered account. Records are immutable once created.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
}

// UserSummary is the public projection returned by GET /all.
type UserSummary struct {
	Username string `json:"username"`
}
