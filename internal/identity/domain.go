// Package identity exposes the minimal user and role lookups the core needs.
// Authentication and role administration live outside this module; the cash
// session engine only asks "which role does this user hold".
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the roles the core distinguishes.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleCashier    Role = "CASHIER"
	RoleAccountant Role = "ACCOUNTANT"
)

// Privileged reports whether the role may act on sessions it does not own.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// User represents an operator account within a tenant.
type User struct {
	ID        int64
	TenantID  uuid.UUID
	Email     string
	Name      string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
