package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caudal-erp/caudal-erp/internal/platform/sequence"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrInvalidCategory indicates an unknown expense category.
	ErrInvalidCategory = fmt.Errorf("expenses: %w: unknown category", shared.ErrValidation)
	// ErrNegativeAmount indicates a negative subtotal or tax rate.
	ErrNegativeAmount = fmt.Errorf("expenses: %w: subtotal and tax rate must be non-negative", shared.ErrValidation)
	// ErrNotApprovable indicates the expense is not in DRAFT.
	ErrNotApprovable = fmt.Errorf("expenses: %w: only draft expenses can be approved", shared.ErrState)
	// ErrNotPayable indicates the expense is not in APPROVED.
	ErrNotPayable = fmt.Errorf("expenses: %w: only approved expenses can be paid", shared.ErrState)
	// ErrNotCancellable indicates the expense is already terminal.
	ErrNotCancellable = fmt.Errorf("expenses: %w: paid or cancelled expenses cannot be cancelled", shared.ErrState)
	// ErrImmutable indicates edits or deletes on a terminal expense.
	ErrImmutable = fmt.Errorf("expenses: %w: paid or cancelled expenses cannot be modified", shared.ErrState)
)

// CreateInput groups fields to record an expense.
type CreateInput struct {
	Category     Category
	SupplierID   *int64
	AccountID    int64
	CostCenterID *int64
	Description  string
	Subtotal     decimal.Decimal
	TaxRate      decimal.Decimal
	CreatedBy    int64
}

// UpdateInput groups the mutable fields of a non-terminal expense.
type UpdateInput struct {
	ID           int64
	Category     Category
	SupplierID   *int64
	AccountID    int64
	CostCenterID *int64
	Description  string
	Subtotal     decimal.Decimal
	TaxRate      decimal.Decimal
}

// Service owns the expense lifecycle and its derived amounts. Paying an
// expense fires a one-way ledger notification whose failure is logged and
// suppressed; the financial state change never rolls back for it.
type Service struct {
	repo     Repository
	notifier LedgerNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier LedgerNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Expense{}, err
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context) ([]Expense, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}

// Create computes tax, reteFuente and total, allocates the next GTO number
// and inserts the draft, all inside one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (Expense, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Expense{}, err
	}
	if !validCategory(in.Category) {
		return Expense{}, ErrInvalidCategory
	}
	if in.Subtotal.IsNegative() || in.TaxRate.IsNegative() {
		return Expense{}, ErrNegativeAmount
	}
	tax, rete, total := ComputeTotals(in.Subtotal, in.TaxRate, in.Category)
	var expense Expense
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, tenantID)
		if err != nil {
			return err
		}
		expense, err = tx.Insert(ctx, Expense{
			TenantID:     tenantID,
			Number:       sequence.ExpenseNumber(seq),
			Category:     in.Category,
			SupplierID:   in.SupplierID,
			AccountID:    in.AccountID,
			CostCenterID: in.CostCenterID,
			Description:  in.Description,
			Subtotal:     in.Subtotal,
			TaxRate:      in.TaxRate,
			Tax:          tax,
			ReteFuente:   rete,
			Total:        total,
			Status:       StatusDraft,
			CreatedBy:    in.CreatedBy,
		})
		return err
	})
	if err != nil {
		return Expense{}, err
	}
	return expense, nil
}

// Update recomputes totals and persists the change. Terminal expenses are immutable.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Expense, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Expense{}, err
	}
	if !validCategory(in.Category) {
		return Expense{}, ErrInvalidCategory
	}
	if in.Subtotal.IsNegative() || in.TaxRate.IsNegative() {
		return Expense{}, ErrNegativeAmount
	}
	tax, rete, total := ComputeTotals(in.Subtotal, in.TaxRate, in.Category)
	var expense Expense
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, tenantID, in.ID)
		if err != nil {
			return err
		}
		if current.Status == StatusPaid || current.Status == StatusCancelled {
			return ErrImmutable
		}
		current.Category = in.Category
		current.SupplierID = in.SupplierID
		current.AccountID = in.AccountID
		current.CostCenterID = in.CostCenterID
		current.Description = in.Description
		current.Subtotal = in.Subtotal
		current.TaxRate = in.TaxRate
		current.Tax = tax
		current.ReteFuente = rete
		current.Total = total
		expense, err = tx.Update(ctx, current)
		return err
	})
	if err != nil {
		return Expense{}, err
	}
	return expense, nil
}

// Approve transitions DRAFT to APPROVED.
func (s *Service) Approve(ctx context.Context, id int64) (Expense, error) {
	return s.transition(ctx, id, StatusApproved, nil, func(current Status) error {
		if current != StatusDraft {
			return ErrNotApprovable
		}
		return nil
	})
}

// Pay transitions APPROVED to PAID and notifies the ledger bridge. The
// notification is fire and forget: its failure is logged, never propagated.
func (s *Service) Pay(ctx context.Context, id int64) (Expense, error) {
	paidAt := s.now()
	expense, err := s.transition(ctx, id, StatusPaid, &paidAt, func(current Status) error {
		if current != StatusApproved {
			return ErrNotPayable
		}
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	if s.notifier != nil {
		evt := ExpensePaidEvent{
			TenantID:   expense.TenantID,
			ExpenseID:  expense.ID,
			Number:     expense.Number,
			Category:   expense.Category,
			AccountID:  expense.AccountID,
			SupplierID: expense.SupplierID,
			Subtotal:   expense.Subtotal,
			Tax:        expense.Tax,
			ReteFuente: expense.ReteFuente,
			Total:      expense.Total,
			PaidAt:     paidAt,
		}
		if err := s.notifier.ExpensePaid(ctx, evt); err != nil {
			s.logger.Error("ledger notification failed",
				slog.String("expense", expense.Number),
				slog.Any("error", err))
		}
	}
	return expense, nil
}

// Cancel transitions DRAFT or APPROVED to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id int64) (Expense, error) {
	return s.transition(ctx, id, StatusCancelled, nil, func(current Status) error {
		if current != StatusDraft && current != StatusApproved {
			return ErrNotCancellable
		}
		return nil
	})
}

// Delete removes a non-terminal expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	current, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if current.Status == StatusPaid || current.Status == StatusCancelled {
		return ErrImmutable
	}
	return s.repo.Delete(ctx, tenantID, id)
}

func (s *Service) transition(ctx context.Context, id int64, target Status, paidAt *time.Time, guard func(Status) error) (Expense, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Expense{}, err
	}
	var expense Expense
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := guard(current.Status); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, tenantID, id, target, paidAt); err != nil {
			return err
		}
		expense = current
		expense.Status = target
		if paidAt != nil {
			expense.PaidAt = paidAt
		}
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return expense, nil
}
