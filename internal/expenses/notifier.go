package expenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpensePaidEvent carries the facts the ledger bridge needs to post the
// payment journal downstream.
type ExpensePaidEvent struct {
	TenantID   uuid.UUID
	ExpenseID  int64
	Number     string
	Category   Category
	AccountID  int64
	SupplierID *int64
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	ReteFuente decimal.Decimal
	Total      decimal.Decimal
	PaidAt     time.Time
}

// LedgerNotifier delivers the paid event to the ledger bridge. Delivery is
// best effort: the expense payment is never contingent on it, so callers
// log failures and move on.
type LedgerNotifier interface {
	ExpensePaid(ctx context.Context, evt ExpensePaidEvent) error
}
