package withholding

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported withholding regimes.
type Type string

const (
	TypeRenta Type = "RENTA"
	TypeICA   Type = "ICA"
	TypeIVA   Type = "IVA"
)

// Certificate is the yearly withholding certificate for one supplier and
// regime. Unique per (tenant, supplier, year, type); regeneration updates
// totals in place and keeps the original certificate number.
type Certificate struct {
	ID                int64
	TenantID          uuid.UUID
	SupplierID        int64
	FiscalYear        int
	Type              Type
	TotalBase         decimal.Decimal
	TotalWithheld     decimal.Decimal
	CertificateNumber string
	// PDFURL is written back by the out-of-scope rendering pipeline.
	PDFURL      *string
	GeneratedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BatchResult summarises a generateAll run. Per-supplier failures are
// logged and skipped, never aborting the batch.
type BatchResult struct {
	Generated    int
	Certificates []Certificate
}

// TypeStats aggregates certificates of one regime.
type TypeStats struct {
	Count         int
	TotalBase     decimal.Decimal
	TotalWithheld decimal.Decimal
}

// Stats aggregates a tenant's certificates for a fiscal year.
type Stats struct {
	Count         int
	TotalBase     decimal.Decimal
	TotalWithheld decimal.Decimal
	ByType        map[Type]TypeStats
}
