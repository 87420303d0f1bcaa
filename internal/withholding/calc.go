package withholding

import "github.com/shopspring/decimal"

// Statutory withholding rates. IVA withholds a share of the collected tax;
// the others withhold on the taxable base. Unknown types fall back to the
// RENTA rate.
var (
	rateRenta = decimal.RequireFromString("0.025")
	rateICA   = decimal.RequireFromString("0.00966")
	rateIVA   = decimal.RequireFromString("0.15")
)

// Calculate returns the withheld amount for a base and accumulated tax,
// rounded to 2 decimals.
func Calculate(base decimal.Decimal, withholdingType Type, tax decimal.Decimal) decimal.Decimal {
	switch withholdingType {
	case TypeIVA:
		return tax.Mul(rateIVA).Round(2)
	case TypeICA:
		return base.Mul(rateICA).Round(2)
	default:
		return base.Mul(rateRenta).Round(2)
	}
}
