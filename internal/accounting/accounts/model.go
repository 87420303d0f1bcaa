package accounts

import (
	"time"

	"github.com/google/uuid"
)

// AccountType classifies accounts by financial statement role.
type AccountType string

const (
	TypeAsset     AccountType = "ASSET"
	TypeLiability AccountType = "LIABILITY"
	TypeEquity    AccountType = "EQUITY"
	TypeRevenue   AccountType = "REVENUE"
	TypeExpense   AccountType = "EXPENSE"
	TypeCOGS      AccountType = "COGS"
)

// AccountNature indicates which side increases the balance.
type AccountNature string

const (
	NatureDebit  AccountNature = "DEBIT"
	NatureCredit AccountNature = "CREDIT"
)

// Account is a node in the tenant's chart of accounts. Code is a digit
// string unique per tenant; Level derives from the code length.
type Account struct {
	ID        int64
	TenantID  uuid.UUID
	Code      string
	Name      string
	Type      AccountType
	Nature    AccountNature
	ParentID  *int64
	Level     int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LevelForCode maps code length onto the four-level hierarchy:
// 1 digit = class, 2 = group, 3-4 = account, longer = subaccount.
func LevelForCode(code string) int {
	switch n := len(code); {
	case n <= 1:
		return 1
	case n == 2:
		return 2
	case n <= 4:
		return 3
	default:
		return 4
	}
}

func validType(t AccountType) bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense, TypeCOGS:
		return true
	}
	return false
}

func validNature(n AccountNature) bool {
	return n == NatureDebit || n == NatureCredit
}
