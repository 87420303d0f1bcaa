package journals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	"github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	internalShared "github.com/caudal-erp/caudal-erp/internal/shared"
)

// AuditPort records lifecycle events, best effort.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service enforces the journal invariants: entries balance at creation,
// posting requires an open period, and voiding preserves amounts.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, entryID int64) (JournalEntry, error) {
	tenantID, err := internalShared.TenantFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	return s.repo.Get(ctx, tenantID, entryID)
}

func (s *Service) List(ctx context.Context) ([]JournalEntry, error) {
	tenantID, err := internalShared.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}

// CreateDraft validates balance and account references, then inserts the
// entry in DRAFT status.
func (s *Service) CreateDraft(ctx context.Context, input DraftInput) (JournalEntry, error) {
	tenantID, err := internalShared.TenantFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	source := input.Source
	if source == "" {
		source = SourceManual
	}
	var entry JournalEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Lock the period row for the whole transaction so a concurrent
		// close sees this draft when it counts blockers.
		if _, err := tx.GetPeriodForUpdate(ctx, tenantID, input.PeriodID); err != nil {
			return err
		}
		for _, line := range input.Lines {
			exists, active, err := tx.AccountState(ctx, tenantID, line.AccountID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w (account %d)", shared.ErrAccountNotFound, line.AccountID)
			}
			if !active {
				return fmt.Errorf("%w (account %d)", shared.ErrAccountInactive, line.AccountID)
			}
		}
		inserted, err := tx.InsertEntry(ctx, JournalEntry{
			TenantID:  tenantID,
			PeriodID:  input.PeriodID,
			Source:    source,
			Memo:      input.Memo,
			Status:    JournalStatusDraft,
			CreatedBy: input.CreatedBy,
		})
		if err != nil {
			return err
		}
		lines, err := tx.InsertLines(ctx, inserted.ID, input.Lines)
		if err != nil {
			return err
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// Post transitions a DRAFT entry to POSTED. The period must still be OPEN;
// posting is the point at which the entry becomes an immutable ledger fact.
func (s *Service) Post(ctx context.Context, entryID int64) (JournalEntry, error) {
	tenantID, err := internalShared.TenantFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusDraft {
			return shared.ErrInvalidStatus
		}
		period, err := tx.GetPeriodForUpdate(ctx, tenantID, current.PeriodID)
		if err != nil {
			return err
		}
		if period.Status != periods.PeriodStatusOpen {
			return shared.ErrPeriodClosed
		}
		if err := tx.MarkPosted(ctx, tenantID, entryID); err != nil {
			return err
		}
		entry = current
		entry.Status = JournalStatusPosted
		postedAt := s.now()
		entry.PostedAt = &postedAt
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			TenantID: tenantID,
			ActorID:  internalShared.ActorFromContext(ctx),
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entryID),
			Meta:     map[string]any{"period_id": entry.PeriodID, "source": entry.Source},
			At:       s.now(),
		})
	}
	return entry, nil
}

// Void marks an entry VOIDED with a reason. Rows are never deleted; the
// amounts stay untouched for the audit trail.
func (s *Service) Void(ctx context.Context, input VoidInput) (JournalEntry, error) {
	tenantID, err := internalShared.TenantFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	if strings.TrimSpace(input.Reason) == "" {
		return JournalEntry{}, shared.ErrVoidReasonRequired
	}
	var entry JournalEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, tenantID, input.EntryID)
		if err != nil {
			return err
		}
		if current.Status == JournalStatusVoided {
			return shared.ErrInvalidStatus
		}
		if err := tx.MarkVoided(ctx, tenantID, input.EntryID, input.Reason); err != nil {
			return err
		}
		entry = current
		entry.Status = JournalStatusVoided
		entry.VoidReason = input.Reason
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			TenantID: tenantID,
			ActorID:  input.ActorID,
			Action:   "journal.void",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", input.EntryID),
			Meta:     map[string]any{"reason": input.Reason},
			At:       s.now(),
		})
	}
	return entry, nil
}
