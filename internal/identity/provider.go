package identity

import (
	"context"
	"fmt"
	"time"
)

// Metadata carries the profile fields stored alongside an identity.
type Metadata struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// User is an identity record owned by the auth provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	UserMetadata Metadata  `json:"user_metadata"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserParams describes an identity to provision through the admin API.
type CreateUserParams struct {
	Email        string   `json:"email"`
	EmailConfirm bool     `json:"email_confirm"`
	UserMetadata Metadata `json:"user_metadata"`
}

// Provider is the administrative surface of the external auth provider.
type Provider interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
}

// APIError is a failed provider response. It preserves the status code and
// status text the backend reported so callers can treat the declared
// status as ground truth.
type APIError struct {
	Status     int
	StatusText string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity: %s (%d %s)", e.Message, e.Status, e.StatusText)
	}
	return fmt.Sprintf("identity: request failed (%d %s)", e.Status, e.StatusText)
}
