package roles

import "time"

// Permission is the flattened view of a permission attached to a role.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Role represents a permission grouping. Permissions is derived from the
// role_permissions junction at read time; it always reflects the current
// junction rows.
type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
