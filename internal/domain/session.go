package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one active refresh-token login for a (user, device) pair.
// Only the SHA-256 hash of the refresh token is ever persisted.
type Session struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	TokenHash  string    `json:"-" db:"token_hash"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at" db:"last_used_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the session is logically dead at now, whether
// or not the sweeper has removed it yet.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// DeviceContext is the client fingerprint captured when a session is issued.
type DeviceContext struct {
	UserAgent string
	IPAddress string
}
