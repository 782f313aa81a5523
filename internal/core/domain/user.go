package domain

import "time"

// User models a registered account. Users own patient records.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID   string
	Username string
}

// Authenticated reports whether the identity was resolved from a valid token.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
