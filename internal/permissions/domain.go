package permissions

import "time"

// Permission represents an atomic capability, e.g. "read:users".
type Permission struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
