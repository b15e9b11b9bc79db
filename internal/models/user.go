package models

import "time"

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

type User struct {
	ID          string
	DisplayName string
	Status      UserStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Credential is the password record for a user. The schema permits at most
// one per user; it is created in the same transaction as the user.
type Credential struct {
	UserID       string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session binds a user to the HMAC digest of a live refresh token. Expired
// rows are purged lazily at login and ignored at authorization time; there
// is no background sweeper.
type Session struct {
	ID        string
	UserID    string
	Hash      string
	CreatedAt time.Time
	ExpiresAt time.Time
}
