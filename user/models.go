package user

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleMaster Role = "master"
	RoleAdmin  Role = "admin"
)

// User mirrors the users table. Role holds the stored role tag, which is
// only ever 'client' or 'admin'; the master role is derived from the masters
// table by ResolveRole.
type User struct {
	ID         string
	FullName   string
	Phone      string
	Role       Role
	Registered bool
	CreatedAt  time.Time
}
