package shared

import "errors"

// Error kinds shared across the core. Domain packages wrap these so callers
// can classify failures with errors.Is without depending on store details.
var (
	// ErrNotFound indicates the referenced entity is absent or outside the tenant.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness or overlap violation.
	ErrConflict = errors.New("conflict")
	// ErrState indicates the operation is illegal for the entity's current status.
	ErrState = errors.New("invalid state")
	// ErrForbidden indicates an ownership or role check failed.
	ErrForbidden = errors.New("forbidden")
	// ErrTenantUnbound occurs when an operation runs outside a tenant-scoped request.
	ErrTenantUnbound = errors.New("no tenant bound to context")
)
