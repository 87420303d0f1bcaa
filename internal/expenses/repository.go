package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/caudal-erp/caudal-erp/internal/platform/db"
	"github.com/caudal-erp/caudal-erp/internal/platform/sequence"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

// ErrExpenseNotFound indicates the expense is absent or outside the tenant.
var ErrExpenseNotFound = fmt.Errorf("expenses: expense %w", shared.ErrNotFound)

// Repository encapsulates DB operations for expenses.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, id int64) (Expense, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Expense, error)
	Delete(ctx context.Context, tenantID uuid.UUID, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Number
// allocation shares the insert's transaction.
type TxRepository interface {
	NextSequence(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Insert(ctx context.Context, e Expense) (Expense, error)
	GetForUpdate(ctx context.Context, tenantID uuid.UUID, id int64) (Expense, error)
	Update(ctx context.Context, e Expense) (Expense, error)
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, id int64, status Status, paidAt *time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const expenseColumns = `id, tenant_id, number, category, supplier_id, account_id, cost_center_id, description, subtotal, tax_rate, tax, rete_fuente, total, status, paid_at, created_by, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	var subtotal, taxRate, tax, rete, total string
	err := row.Scan(&e.ID, &e.TenantID, &e.Number, &e.Category, &e.SupplierID, &e.AccountID, &e.CostCenterID, &e.Description,
		&subtotal, &taxRate, &tax, &rete, &total, &e.Status, &e.PaidAt, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		return Expense{}, err
	}
	for _, pair := range []struct {
		dst *decimal.Decimal
		src string
	}{{&e.Subtotal, subtotal}, {&e.TaxRate, taxRate}, {&e.Tax, tax}, {&e.ReteFuente, rete}, {&e.Total, total}} {
		if *pair.dst, err = decimal.NewFromString(pair.src); err != nil {
			return Expense{}, err
		}
	}
	return e, nil
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID, id int64) (Expense, error) {
	return scanExpense(r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE tenant_id=$1 AND id=$2`, tenantID, id))
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]Expense, error) {
	rows, err := r.db.Query(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE tenant_id=$1 ORDER BY id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) Delete(ctx context.Context, tenantID uuid.UUID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextSequence(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return sequence.Next(ctx, r.tx, tenantID, sequence.DocTypeExpense, "")
}

func (r *txRepository) Insert(ctx context.Context, e Expense) (Expense, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO expenses
(tenant_id, number, category, supplier_id, account_id, cost_center_id, description, subtotal, tax_rate, tax, rete_fuente, total, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING id, created_at, updated_at`,
		e.TenantID, e.Number, e.Category, e.SupplierID, e.AccountID, e.CostCenterID, e.Description,
		e.Subtotal.StringFixed(2), e.TaxRate.StringFixed(2), e.Tax.StringFixed(2), e.ReteFuente.StringFixed(2), e.Total.StringFixed(2),
		e.Status, e.CreatedBy)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID uuid.UUID, id int64) (Expense, error) {
	return scanExpense(r.tx.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
}

func (r *txRepository) Update(ctx context.Context, e Expense) (Expense, error) {
	return scanExpense(r.tx.QueryRow(ctx, `UPDATE expenses
SET category=$3, supplier_id=$4, account_id=$5, cost_center_id=$6, description=$7,
    subtotal=$8, tax_rate=$9, tax=$10, rete_fuente=$11, total=$12, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 RETURNING `+expenseColumns,
		e.TenantID, e.ID, e.Category, e.SupplierID, e.AccountID, e.CostCenterID, e.Description,
		e.Subtotal.StringFixed(2), e.TaxRate.StringFixed(2), e.Tax.StringFixed(2), e.ReteFuente.StringFixed(2), e.Total.StringFixed(2)))
}

func (r *txRepository) UpdateStatus(ctx context.Context, tenantID uuid.UUID, id int64, status Status, paidAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE expenses SET status=$3, paid_at=COALESCE($4, paid_at), updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, tenantID, id, status, paidAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
