// Package purchasing exposes the read-only purchase-order view the core
// consumes. Purchase-order lifecycle is owned by the purchasing subsystem;
// the withholding generator only reads RECEIVED orders and supplier facts.
package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivedOrder is the aggregate slice of a purchase order the withholding
// generator needs: identity of the supplier plus taxable amounts.
type ReceivedOrder struct {
	ID         int64
	SupplierID int64
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	ReceivedAt time.Time
}

// ReadModel is the port onto the purchasing subsystem.
type ReadModel interface {
	// FindReceived returns orders with status RECEIVED and a receipt date in
	// [from, to). A nil supplierID matches all suppliers.
	FindReceived(ctx context.Context, tenantID uuid.UUID, supplierID *int64, from, to time.Time) ([]ReceivedOrder, error)
	// DistinctSuppliers lists suppliers having at least one RECEIVED order in [from, to).
	DistinctSuppliers(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]int64, error)
	// SupplierExists reports whether the supplier belongs to the tenant.
	SupplierExists(ctx context.Context, tenantID uuid.UUID, supplierID int64) (bool, error)
}
