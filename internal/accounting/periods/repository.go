package periods

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	"github.com/caudal-erp/caudal-erp/internal/platform/db"
)

// Repository encapsulates DB operations for accounting periods.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, id int64) (Period, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Period, error)
	FindOpenByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, tenantID uuid.UUID, id int64) (Period, error)
	RangeConflict(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (bool, error)
	Insert(ctx context.Context, p Period) (Period, error)
	CountDraftEntries(ctx context.Context, tenantID uuid.UUID, periodID int64) (int, error)
	MarkClosed(ctx context.Context, tenantID uuid.UUID, periodID int64, closedAt time.Time, closedBy int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const periodColumns = `id, tenant_id, name, start_date, end_date, status, notes, closed_at, closed_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.Notes, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id=$1 AND id=$2`, tenantID, id))
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id=$1 ORDER BY start_date DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) FindOpenByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE tenant_id=$1 AND status='OPEN' AND start_date <= $2 AND end_date >= $2
ORDER BY start_date ASC LIMIT 1`, tenantID, date))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID uuid.UUID, id int64) (Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
}

// RangeConflict reports whether [start,end] intersects any existing period
// in the tenant: existing.start <= end AND existing.end >= start.
func (r *txRepository) RangeConflict(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM accounting_periods WHERE tenant_id=$1 AND start_date <= $3 AND end_date >= $2)`, tenantID, start, end).Scan(&exists)
	return exists, err
}

func (r *txRepository) Insert(ctx context.Context, p Period) (Period, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounting_periods (tenant_id, name, start_date, end_date, status, notes)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`, p.TenantID, p.Name, p.StartDate, p.EndDate, p.Status, p.Notes)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isRangeExclusion(err) {
			return Period{}, shared.ErrPeriodOverlap
		}
		return Period{}, err
	}
	return p, nil
}

// isRangeExclusion matches the exclusion constraint on
// (tenant_id, daterange(start_date, end_date, '[]')). RangeConflict gives
// the friendly pre-check; the constraint catches concurrent inserts.
func isRangeExclusion(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "ex_accounting_periods_range"
}

func (r *txRepository) CountDraftEntries(ctx context.Context, tenantID uuid.UUID, periodID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE tenant_id=$1 AND period_id=$2 AND status='DRAFT'`, tenantID, periodID).Scan(&count)
	return count, err
}

func (r *txRepository) MarkClosed(ctx context.Context, tenantID uuid.UUID, periodID int64, closedAt time.Time, closedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounting_periods SET status='CLOSED', closed_at=$3, closed_by=$4, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, tenantID, periodID, closedAt, closedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrPeriodNotFound
	}
	return nil
}
