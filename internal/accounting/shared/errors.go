package shared

import (
	"fmt"

	internalShared "github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = fmt.Errorf("accounting: %w: journal lines must balance", internalShared.ErrValidation)
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = fmt.Errorf("accounting: %w: journal requires at least two lines", internalShared.ErrValidation)
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = fmt.Errorf("accounting: journal entry %w", internalShared.ErrNotFound)
	// ErrPeriodNotFound indicates missing period.
	ErrPeriodNotFound = fmt.Errorf("accounting: period %w", internalShared.ErrNotFound)
	// ErrAccountNotFound indicates a referenced account is absent or outside the tenant.
	ErrAccountNotFound = fmt.Errorf("accounting: account %w", internalShared.ErrNotFound)
	// ErrAccountInactive indicates a line references a deactivated account.
	ErrAccountInactive = fmt.Errorf("accounting: %w: account is inactive", internalShared.ErrValidation)
	// ErrPeriodClosed indicates the target period no longer accepts postings.
	ErrPeriodClosed = fmt.Errorf("accounting: %w: period is closed", internalShared.ErrState)
	// ErrPeriodOverlap indicates the new period range intersects an existing one.
	ErrPeriodOverlap = fmt.Errorf("accounting: %w: period range overlaps an existing period", internalShared.ErrConflict)
	// ErrInvalidStatus indicates action can't proceed from the entry's current status.
	ErrInvalidStatus = fmt.Errorf("accounting: %w: illegal journal status transition", internalShared.ErrState)
	// ErrVoidReasonRequired indicates a void without a reason.
	ErrVoidReasonRequired = fmt.Errorf("accounting: %w: void reason required", internalShared.ErrValidation)
)
