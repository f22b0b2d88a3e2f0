package domain

import "time"

// AuthToken is the stable bearer credential for one user. It is minted on the
// first successful login and returned verbatim on every later login; tokens
// are not rotated per session.
type AuthToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
