package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/caudal-erp/caudal-erp/internal/accounting/accounts"
	"github.com/caudal-erp/caudal-erp/internal/accounting/journals"
	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	internalShared "github.com/caudal-erp/caudal-erp/internal/shared"
	"github.com/caudal-erp/caudal-erp/jobs"
)

// SourceExpensePayment tags journal entries posted by this bridge.
const SourceExpensePayment = "EXPENSES.PAYMENT"

// Ledger exposes the journal operations the bridge needs.
type Ledger interface {
	CreateDraft(ctx context.Context, input journals.DraftInput) (journals.JournalEntry, error)
	Post(ctx context.Context, entryID int64) (journals.JournalEntry, error)
}

// PeriodLookup resolves the open period covering a payment date.
type PeriodLookup interface {
	FindOpenByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (periods.Period, error)
}

// AccountLookup resolves ledger accounts by chart code.
type AccountLookup interface {
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (accounts.Account, error)
}

// AccountCodes names the chart accounts the bridge credits. The debit side
// comes from the expense itself.
type AccountCodes struct {
	Cash              string
	ReteFuentePayable string
}

// Hooks wires paid-expense events from the queue into the general ledger.
type Hooks struct {
	ledger   Ledger
	periods  PeriodLookup
	accounts AccountLookup
	codes    AccountCodes
	logger   *slog.Logger
}

// NewHooks constructs the ledger bridge.
func NewHooks(ledger Ledger, periodRepo PeriodLookup, accountRepo AccountLookup, codes AccountCodes, logger *slog.Logger) *Hooks {
	return &Hooks{ledger: ledger, periods: periodRepo, accounts: accountRepo, codes: codes, logger: logger}
}

// HandleExpensePaidTask unmarshals the queued task and posts the entry.
func (h *Hooks) HandleExpensePaidTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ExpensePaidPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("integration: decode expense paid payload: %w", err)
	}
	return h.HandleExpensePaid(ctx, payload)
}

// HandleExpensePaid posts the payment journal for a paid expense: the expense
// account is debited gross, the withholding payable and cash accounts are
// credited. The entry is created as a draft and posted in the same call.
func (h *Hooks) HandleExpensePaid(ctx context.Context, evt jobs.ExpensePaidPayload) error {
	if h == nil || h.ledger == nil || h.periods == nil || h.accounts == nil {
		return nil
	}
	if evt.TenantID == uuid.Nil {
		return errors.New("integration: tenant id required")
	}
	if evt.PaidAt.IsZero() {
		return errors.New("integration: payment date required")
	}
	subtotal, err := decimal.NewFromString(evt.Subtotal)
	if err != nil {
		return fmt.Errorf("integration: subtotal: %w", err)
	}
	tax, err := decimal.NewFromString(evt.Tax)
	if err != nil {
		return fmt.Errorf("integration: tax: %w", err)
	}
	rete, err := decimal.NewFromString(evt.ReteFuente)
	if err != nil {
		return fmt.Errorf("integration: rete fuente: %w", err)
	}
	total, err := decimal.NewFromString(evt.Total)
	if err != nil {
		return fmt.Errorf("integration: total: %w", err)
	}
	gross := subtotal.Add(tax)
	if gross.IsZero() {
		return nil
	}

	ctx = internalShared.ContextWithTenant(ctx, evt.TenantID)
	period, err := h.periods.FindOpenByDate(ctx, evt.TenantID, evt.PaidAt)
	if err != nil {
		return fmt.Errorf("integration: no open period covers %s: %w", evt.PaidAt.Format("2006-01-02"), err)
	}
	cashAccount, err := h.accounts.GetByCode(ctx, evt.TenantID, h.codes.Cash)
	if err != nil {
		return fmt.Errorf("integration: cash account %q: %w", h.codes.Cash, err)
	}
	lines := []journals.DraftLineInput{
		{AccountID: evt.AccountID, Debit: gross.InexactFloat64()},
	}
	if rete.IsPositive() {
		reteAccount, err := h.accounts.GetByCode(ctx, evt.TenantID, h.codes.ReteFuentePayable)
		if err != nil {
			return fmt.Errorf("integration: rete fuente account %q: %w", h.codes.ReteFuentePayable, err)
		}
		lines = append(lines, journals.DraftLineInput{AccountID: reteAccount.ID, Credit: rete.InexactFloat64()})
	}
	lines = append(lines, journals.DraftLineInput{AccountID: cashAccount.ID, Credit: total.InexactFloat64()})

	entry, err := h.ledger.CreateDraft(ctx, journals.DraftInput{
		PeriodID: period.ID,
		Source:   SourceExpensePayment,
		Memo:     fmt.Sprintf("Expense %s payment", evt.Number),
		Lines:    lines,
	})
	if err != nil {
		return err
	}
	if _, err := h.ledger.Post(ctx, entry.ID); err != nil {
		return err
	}
	h.logger.Info("expense payment posted to ledger",
		slog.String("expense", evt.Number),
		slog.Int64("entry_id", entry.ID),
		slog.String("total", evt.Total))
	return nil
}
