package users

import "time"

// RoleRef is the role attached to a directory user, as shown in the
// user table.
type RoleRef struct {
	ID   int64
	Name string
}

// User is a directory entry merged from the auth provider identity and
// the locally stored role membership.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	Role      *RoleRef
}
