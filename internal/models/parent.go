package models

import (
	"time"

	"satsjar/internal/credentials"
)

// Parent represents a parent account in the system
type Parent struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	OAuthProvider string
	OAuthSubject  string
	PINCredential credentials.Stored
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasSavingsPIN reports whether the parent has set a savings PIN
func (p *Parent) HasSavingsPIN() bool {
	return p.PINCredential.HasCredential()
}

// ChildSession represents an authenticated child session
type ChildSession struct {
	ID        string
	ChildID   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *ChildSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
