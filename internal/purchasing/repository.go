package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository provides the PostgreSQL backed read model.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) FindReceived(ctx context.Context, tenantID uuid.UUID, supplierID *int64, from, to time.Time) ([]ReceivedOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, subtotal, tax, received_at
FROM purchase_orders
WHERE tenant_id=$1 AND status='RECEIVED' AND received_at >= $2 AND received_at < $3
  AND ($4::bigint IS NULL OR supplier_id = $4)
ORDER BY received_at ASC`, tenantID, from, to, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReceivedOrder
	for rows.Next() {
		var o ReceivedOrder
		var subtotal, tax string
		if err := rows.Scan(&o.ID, &o.SupplierID, &subtotal, &tax, &o.ReceivedAt); err != nil {
			return nil, err
		}
		if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}
		if o.Tax, err = decimal.NewFromString(tax); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) DistinctSuppliers(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT supplier_id FROM purchase_orders
WHERE tenant_id=$1 AND status='RECEIVED' AND received_at >= $2 AND received_at < $3
ORDER BY supplier_id ASC`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) SupplierExists(ctx context.Context, tenantID uuid.UUID, supplierID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE tenant_id=$1 AND id=$2)`, tenantID, supplierID).Scan(&exists)
	return exists, err
}
