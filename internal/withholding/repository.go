package withholding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/caudal-erp/caudal-erp/internal/platform/db"
	"github.com/caudal-erp/caudal-erp/internal/platform/sequence"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrCertificateNotFound indicates the certificate is absent or outside the tenant.
	ErrCertificateNotFound = fmt.Errorf("withholding: certificate %w", shared.ErrNotFound)
	// ErrDuplicateKey indicates a concurrent generation raced on the same key.
	ErrDuplicateKey = fmt.Errorf("withholding: %w: certificate already exists for supplier/year/type", shared.ErrConflict)
)

// Repository encapsulates DB operations for certificates.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, id int64) (Certificate, error)
	ListByYear(ctx context.Context, tenantID uuid.UUID, year int) ([]Certificate, error)
	Stats(ctx context.Context, tenantID uuid.UUID, year int) (Stats, error)
	Delete(ctx context.Context, tenantID uuid.UUID, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a generation transaction.
// Number allocation happens on the same transaction as the upsert so an
// aborted generation never burns a certificate number.
type TxRepository interface {
	GetForUpdateByKey(ctx context.Context, tenantID uuid.UUID, supplierID int64, year int, wtype Type) (Certificate, error)
	Insert(ctx context.Context, c Certificate) (Certificate, error)
	UpdateTotals(ctx context.Context, id int64, base, withheld decimal.Decimal, generatedAt time.Time) (Certificate, error)
	NextSequence(ctx context.Context, tenantID uuid.UUID, year int) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const certificateColumns = `id, tenant_id, supplier_id, fiscal_year, withholding_type, total_base, total_withheld, certificate_number, pdf_url, generated_at, created_at, updated_at`

func scanCertificate(row pgx.Row) (Certificate, error) {
	var c Certificate
	var base, withheld string
	err := row.Scan(&c.ID, &c.TenantID, &c.SupplierID, &c.FiscalYear, &c.Type, &base, &withheld, &c.CertificateNumber, &c.PDFURL, &c.GeneratedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Certificate{}, ErrCertificateNotFound
		}
		return Certificate{}, err
	}
	if c.TotalBase, err = decimal.NewFromString(base); err != nil {
		return Certificate{}, err
	}
	if c.TotalWithheld, err = decimal.NewFromString(withheld); err != nil {
		return Certificate{}, err
	}
	return c, nil
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID, id int64) (Certificate, error) {
	return scanCertificate(r.db.QueryRow(ctx, `SELECT `+certificateColumns+` FROM withholding_certificates WHERE tenant_id=$1 AND id=$2`, tenantID, id))
}

func (r *repository) ListByYear(ctx context.Context, tenantID uuid.UUID, year int) ([]Certificate, error) {
	rows, err := r.db.Query(ctx, `SELECT `+certificateColumns+` FROM withholding_certificates
WHERE tenant_id=$1 AND fiscal_year=$2 ORDER BY certificate_number ASC`, tenantID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Stats(ctx context.Context, tenantID uuid.UUID, year int) (Stats, error) {
	rows, err := r.db.Query(ctx, `SELECT withholding_type, COUNT(*), COALESCE(SUM(total_base),0), COALESCE(SUM(total_withheld),0)
FROM withholding_certificates WHERE tenant_id=$1 AND fiscal_year=$2 GROUP BY withholding_type`, tenantID, year)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	stats := Stats{ByType: make(map[Type]TypeStats)}
	stats.TotalBase = decimal.Zero
	stats.TotalWithheld = decimal.Zero
	for rows.Next() {
		var wtype Type
		var ts TypeStats
		var base, withheld string
		if err := rows.Scan(&wtype, &ts.Count, &base, &withheld); err != nil {
			return Stats{}, err
		}
		if ts.TotalBase, err = decimal.NewFromString(base); err != nil {
			return Stats{}, err
		}
		if ts.TotalWithheld, err = decimal.NewFromString(withheld); err != nil {
			return Stats{}, err
		}
		stats.ByType[wtype] = ts
		stats.Count += ts.Count
		stats.TotalBase = stats.TotalBase.Add(ts.TotalBase)
		stats.TotalWithheld = stats.TotalWithheld.Add(ts.TotalWithheld)
	}
	return stats, rows.Err()
}

func (r *repository) Delete(ctx context.Context, tenantID uuid.UUID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM withholding_certificates WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCertificateNotFound
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

func (r *txRepository) GetForUpdateByKey(ctx context.Context, tenantID uuid.UUID, supplierID int64, year int, wtype Type) (Certificate, error) {
	return scanCertificate(r.tx.QueryRow(ctx, `SELECT `+certificateColumns+` FROM withholding_certificates
WHERE tenant_id=$1 AND supplier_id=$2 AND fiscal_year=$3 AND withholding_type=$4 FOR UPDATE`, tenantID, supplierID, year, wtype))
}

func (r *txRepository) Insert(ctx context.Context, c Certificate) (Certificate, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO withholding_certificates
(tenant_id, supplier_id, fiscal_year, withholding_type, total_base, total_withheld, certificate_number, generated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`,
		c.TenantID, c.SupplierID, c.FiscalYear, c.Type, c.TotalBase.StringFixed(2), c.TotalWithheld.StringFixed(2), c.CertificateNumber, c.GeneratedAt)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_withholding_certificates_key" {
			return Certificate{}, ErrDuplicateKey
		}
		return Certificate{}, err
	}
	return c, nil
}

func (r *txRepository) UpdateTotals(ctx context.Context, id int64, base, withheld decimal.Decimal, generatedAt time.Time) (Certificate, error) {
	return scanCertificate(r.tx.QueryRow(ctx, `UPDATE withholding_certificates
SET total_base=$2, total_withheld=$3, generated_at=$4, updated_at=NOW()
WHERE id=$1 RETURNING `+certificateColumns, id, base.StringFixed(2), withheld.StringFixed(2), generatedAt))
}

func (r *txRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	return sequence.Next(ctx, r.tx, tenantID, sequence.DocTypeCertificate, sequence.YearScope(year))
}
