package pos

import (
	"fmt"

	"github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrRegisterNotFound indicates the register is absent or outside the tenant.
	ErrRegisterNotFound = fmt.Errorf("pos: cash register %w", shared.ErrNotFound)
	// ErrSessionNotFound indicates the session is absent or outside the tenant.
	ErrSessionNotFound = fmt.Errorf("pos: session %w", shared.ErrNotFound)
	// ErrSessionAlreadyActive indicates the register already has an ACTIVE session.
	ErrSessionAlreadyActive = fmt.Errorf("pos: %w: register already has an active session", shared.ErrConflict)
	// ErrSessionNotActive indicates the operation requires an ACTIVE session.
	ErrSessionNotActive = fmt.Errorf("pos: %w: session is not active", shared.ErrState)
	// ErrSessionNotClosed indicates a Z report on a session still ACTIVE.
	ErrSessionNotClosed = fmt.Errorf("pos: %w: Z report requires a closed session", shared.ErrState)
	// ErrNotSessionOwner indicates the actor neither owns the session nor holds a privileged role.
	ErrNotSessionOwner = fmt.Errorf("pos: %w: session belongs to another user", shared.ErrForbidden)
	// ErrInvalidMovement indicates a movement type outside CASH_IN/CASH_OUT.
	ErrInvalidMovement = fmt.Errorf("pos: %w: movement must be CASH_IN or CASH_OUT", shared.ErrValidation)
	// ErrNonPositiveAmount indicates a zero or negative movement amount.
	ErrNonPositiveAmount = fmt.Errorf("pos: %w: amount must be positive", shared.ErrValidation)
	// ErrInvalidReportKind indicates a report kind outside X/Z.
	ErrInvalidReportKind = fmt.Errorf("pos: %w: report kind must be X or Z", shared.ErrValidation)
)
