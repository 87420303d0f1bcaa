package expenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category enumerates expense categories; each carries a statutory
// withholding-at-source rate applied on the subtotal.
type Category string

const (
	CategoryHonorarios        Category = "HONORARIOS"
	CategoryServiciosPublicos Category = "SERVICIOS_PUBLICOS"
	CategoryArriendos         Category = "ARRIENDOS"
	CategoryCompras           Category = "COMPRAS"
	CategoryTransporte        Category = "TRANSPORTE"
	CategoryOtros             Category = "OTROS"
)

// Status enumerates the expense lifecycle. PAID and CANCELLED are terminal;
// neither can be edited or deleted.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// reteFuente rates by category, applied on the subtotal.
var reteFuenteRates = map[Category]decimal.Decimal{
	CategoryHonorarios:        decimal.RequireFromString("0.10"),
	CategoryServiciosPublicos: decimal.Zero,
	CategoryArriendos:         decimal.RequireFromString("0.035"),
	CategoryCompras:           decimal.RequireFromString("0.025"),
	CategoryTransporte:        decimal.RequireFromString("0.01"),
	CategoryOtros:             decimal.RequireFromString("0.025"),
}

// ReteFuenteRate returns the withholding-at-source rate for a category,
// defaulting to the general purchases rate for unknown values.
func ReteFuenteRate(c Category) decimal.Decimal {
	if rate, ok := reteFuenteRates[c]; ok {
		return rate
	}
	return reteFuenteRates[CategoryCompras]
}

// Expense records a tenant outflow with computed tax and withholding.
type Expense struct {
	ID           int64
	TenantID     uuid.UUID
	Number       string
	Category     Category
	SupplierID   *int64
	AccountID    int64
	CostCenterID *int64
	Description  string
	Subtotal     decimal.Decimal
	TaxRate      decimal.Decimal
	Tax          decimal.Decimal
	ReteFuente   decimal.Decimal
	Total        decimal.Decimal
	Status       Status
	PaidAt       *time.Time
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ComputeTotals derives tax, reteFuente and total from subtotal, tax rate
// and category, all rounded to 2 decimals.
func ComputeTotals(subtotal, taxRate decimal.Decimal, category Category) (tax, reteFuente, total decimal.Decimal) {
	tax = subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	reteFuente = subtotal.Mul(ReteFuenteRate(category)).Round(2)
	total = subtotal.Add(tax).Sub(reteFuente).Round(2)
	return tax, reteFuente, total
}

func validCategory(c Category) bool {
	_, ok := reteFuenteRates[c]
	return ok
}
