package auth

import "time"

// Account represents a panel operator. Operators are local to the panel
// and distinct from the directory identities managed through the auth
// provider.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
