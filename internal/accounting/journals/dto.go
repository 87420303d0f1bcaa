package journals

import (
	"fmt"

	"github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	internalShared "github.com/caudal-erp/caudal-erp/internal/shared"
)

// DraftLineInput describes a journal line in a draft request.
type DraftLineInput struct {
	AccountID int64
	Debit     float64
	Credit    float64
}

// DraftInput groups fields required to create a draft entry.
type DraftInput struct {
	PeriodID  int64
	Source    string
	Memo      string
	CreatedBy int64
	Lines     []DraftLineInput
}

// Validate enforces line shape and the balance invariant. Balance is
// checked here, at creation, and never re-validated after posting.
func (in DraftInput) Validate() error {
	if in.PeriodID == 0 {
		return fmt.Errorf("journals: %w: period required", internalShared.ErrValidation)
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journals: %w: line %d missing account", internalShared.ErrValidation, idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("journals: %w: line %d negative amount", internalShared.ErrValidation, idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("journals: %w: line %d cannot be both debit and credit", internalShared.ErrValidation, idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// VoidInput wraps parameters for voiding.
type VoidInput struct {
	EntryID int64
	ActorID int64
	Reason  string
}
