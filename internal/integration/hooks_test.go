package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caudal-erp/caudal-erp/internal/accounting/accounts"
	"github.com/caudal-erp/caudal-erp/internal/accounting/journals"
	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	accountingShared "github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	"github.com/caudal-erp/caudal-erp/jobs"
)

type mockLedger struct {
	drafts []journals.DraftInput
	posted []int64
}

func (m *mockLedger) CreateDraft(ctx context.Context, input journals.DraftInput) (journals.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	m.drafts = append(m.drafts, input)
	return journals.JournalEntry{ID: int64(len(m.drafts)), Status: journals.JournalStatusDraft}, nil
}

func (m *mockLedger) Post(ctx context.Context, entryID int64) (journals.JournalEntry, error) {
	m.posted = append(m.posted, entryID)
	return journals.JournalEntry{ID: entryID, Status: journals.JournalStatusPosted}, nil
}

type mockPeriodLookup struct {
	period periods.Period
	err    error
}

func (m *mockPeriodLookup) FindOpenByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (periods.Period, error) {
	if m.err != nil {
		return periods.Period{}, m.err
	}
	return m.period, nil
}

type mockAccountLookup struct {
	byCode map[string]accounts.Account
}

func (m *mockAccountLookup) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (accounts.Account, error) {
	a, ok := m.byCode[code]
	if !ok {
		return accounts.Account{}, accountingShared.ErrAccountNotFound
	}
	return a, nil
}

var testCodes = AccountCodes{Cash: "110505", ReteFuentePayable: "236540"}

func bridgeFixture() (*Hooks, *mockLedger) {
	ledger := &mockLedger{}
	lookup := &mockAccountLookup{byCode: map[string]accounts.Account{
		"110505": {ID: 500, Code: "110505"},
		"236540": {ID: 600, Code: "236540"},
	}}
	hooks := NewHooks(ledger, &mockPeriodLookup{period: periods.Period{ID: 1, Status: periods.PeriodStatusOpen}}, lookup, testCodes, slog.Default())
	return hooks, ledger
}

func paidEvent() jobs.ExpensePaidPayload {
	return jobs.ExpensePaidPayload{
		TenantID:   uuid.New(),
		ExpenseID:  9,
		Number:     "GTO-00009",
		Category:   "HONORARIOS",
		AccountID:  300,
		Subtotal:   "1000000.00",
		Tax:        "190000.00",
		ReteFuente: "100000.00",
		Total:      "1090000.00",
		PaidAt:     time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandleExpensePaidPostsBalancedEntry(t *testing.T) {
	hooks, ledger := bridgeFixture()

	require.NoError(t, hooks.HandleExpensePaid(context.Background(), paidEvent()))

	require.Len(t, ledger.drafts, 1)
	draft := ledger.drafts[0]
	assert.Equal(t, SourceExpensePayment, draft.Source)
	require.Len(t, draft.Lines, 3)

	// debit the expense account gross, credit withholding and cash
	assert.Equal(t, int64(300), draft.Lines[0].AccountID)
	assert.Equal(t, 1190000.0, draft.Lines[0].Debit)
	assert.Equal(t, int64(600), draft.Lines[1].AccountID)
	assert.Equal(t, 100000.0, draft.Lines[1].Credit)
	assert.Equal(t, int64(500), draft.Lines[2].AccountID)
	assert.Equal(t, 1090000.0, draft.Lines[2].Credit)

	require.Len(t, ledger.posted, 1)
}

func TestHandleExpensePaidWithoutWithholding(t *testing.T) {
	hooks, ledger := bridgeFixture()

	evt := paidEvent()
	evt.Subtotal = "350000.00"
	evt.Tax = "0.00"
	evt.ReteFuente = "0.00"
	evt.Total = "350000.00"

	require.NoError(t, hooks.HandleExpensePaid(context.Background(), evt))
	require.Len(t, ledger.drafts, 1)
	assert.Len(t, ledger.drafts[0].Lines, 2)
}

func TestHandleExpensePaidZeroGross(t *testing.T) {
	hooks, ledger := bridgeFixture()

	evt := paidEvent()
	evt.Subtotal = "0.00"
	evt.Tax = "0.00"
	evt.ReteFuente = "0.00"
	evt.Total = "0.00"

	require.NoError(t, hooks.HandleExpensePaid(context.Background(), evt))
	assert.Empty(t, ledger.drafts)
}

func TestHandleExpensePaidNoOpenPeriod(t *testing.T) {
	ledger := &mockLedger{}
	lookup := &mockAccountLookup{byCode: map[string]accounts.Account{}}
	hooks := NewHooks(ledger, &mockPeriodLookup{err: accountingShared.ErrPeriodNotFound}, lookup, testCodes, slog.Default())

	err := hooks.HandleExpensePaid(context.Background(), paidEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, accountingShared.ErrPeriodNotFound)
	assert.Empty(t, ledger.drafts)
}

func TestHandleExpensePaidRejectsBadPayload(t *testing.T) {
	hooks, _ := bridgeFixture()

	evt := paidEvent()
	evt.TenantID = uuid.Nil
	assert.Error(t, hooks.HandleExpensePaid(context.Background(), evt))

	evt = paidEvent()
	evt.PaidAt = time.Time{}
	assert.Error(t, hooks.HandleExpensePaid(context.Background(), evt))

	evt = paidEvent()
	evt.Subtotal = "not-a-number"
	assert.Error(t, hooks.HandleExpensePaid(context.Background(), evt))
}
