package models

import "time"

// User represents a registered study account
type User struct {
	ID           int64
	Identity     string
	PasswordHash string // empty for identity-only accounts
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCredential reports whether the account was registered with a credential
func (u *User) HasCredential() bool {
	return u.PasswordHash != ""
}

// Session represents an authenticated login session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
