package model

import "time"

// Token is an opaque bearer credential bound to exactly one user.
// A user has at most one token; issuing is idempotent.
type Token struct {
	Key       string    `json:"-"` // Never serialize in entity form
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
