package pos

import (
	"time"

	"github.com/google/uuid"
)

// RegisterStatus tracks whether a cash register has an open session.
type RegisterStatus string

const (
	RegisterStatusOpen   RegisterStatus = "OPEN"
	RegisterStatusClosed RegisterStatus = "CLOSED"
)

// SessionStatus enumerates the per-register session state machine:
// no session -> ACTIVE -> CLOSED.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "ACTIVE"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// MovementType enumerates the append-only movement audit trail.
type MovementType string

const (
	MovementOpening MovementType = "OPENING"
	MovementCashIn  MovementType = "CASH_IN"
	MovementCashOut MovementType = "CASH_OUT"
	MovementSale    MovementType = "SALE"
	MovementRefund  MovementType = "REFUND"
	MovementClosing MovementType = "CLOSING"
)

// PaymentMethod tags sales and refunds; nil for movement types where it is
// not relevant.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentTransfer   PaymentMethod = "TRANSFER"
	PaymentOther      PaymentMethod = "OTHER"
)

// CashRegister is a tenant's physical till.
type CashRegister struct {
	ID        int64
	TenantID  uuid.UUID
	Name      string
	Location  string
	Status    RegisterStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is one operator shift on a register. At most one session per
// register is ACTIVE at any time.
type Session struct {
	ID             int64
	TenantID       uuid.UUID
	RegisterID     int64
	OpenedBy       int64
	Status         SessionStatus
	OpeningAmount  float64
	ClosingAmount  *float64
	ExpectedAmount *float64
	Difference     *float64
	OpenedAt       time.Time
	ClosedAt       *time.Time
	Notes          string
}

// Movement is one row of the append-only session audit trail; movements
// are never updated or deleted.
type Movement struct {
	ID            int64
	TenantID      uuid.UUID
	SessionID     int64
	Type          MovementType
	Amount        float64
	PaymentMethod *PaymentMethod
	Reference     string
	Notes         string
	CreatedAt     time.Time
}

func (m Movement) isCash() bool {
	return m.PaymentMethod != nil && *m.PaymentMethod == PaymentCash
}

// ExpectedCash replays the session's movements into the cash the drawer
// should hold. The fold is order-independent: OPENING and CASH_IN add,
// CASH_OUT subtracts, SALE and REFUND count only when paid in cash, and
// CLOSING or unknown types are ignored.
func ExpectedCash(movements []Movement) float64 {
	var total float64
	for _, m := range movements {
		switch m.Type {
		case MovementOpening, MovementCashIn:
			total += m.Amount
		case MovementCashOut:
			total -= m.Amount
		case MovementSale:
			if m.isCash() {
				total += m.Amount
			}
		case MovementRefund:
			if m.isCash() {
				total -= m.Amount
			}
		}
	}
	return total
}
