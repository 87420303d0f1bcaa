package pos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caudal-erp/caudal-erp/internal/platform/db"
)

// Repository encapsulates DB operations for registers, sessions and movements.
type Repository interface {
	GetRegister(ctx context.Context, tenantID uuid.UUID, registerID int64) (CashRegister, error)
	GetSession(ctx context.Context, tenantID uuid.UUID, sessionID int64) (Session, error)
	FindActiveSessionByUser(ctx context.Context, tenantID uuid.UUID, userID int64) (*Session, error)
	ListMovements(ctx context.Context, tenantID uuid.UUID, sessionID int64) ([]Movement, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Session
// open and close are multi-row mutations; all their writes share one
// transaction so partial application is impossible.
type TxRepository interface {
	GetRegisterForUpdate(ctx context.Context, tenantID uuid.UUID, registerID int64) (CashRegister, error)
	GetSessionForUpdate(ctx context.Context, tenantID uuid.UUID, sessionID int64) (Session, error)
	HasActiveSession(ctx context.Context, tenantID uuid.UUID, registerID int64) (bool, error)
	InsertSession(ctx context.Context, s Session) (Session, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	ListMovements(ctx context.Context, tenantID uuid.UUID, sessionID int64) ([]Movement, error)
	CloseSession(ctx context.Context, s Session) error
	SetRegisterStatus(ctx context.Context, tenantID uuid.UUID, registerID int64, status RegisterStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const sessionColumns = `id, tenant_id, register_id, opened_by, status, opening_amount, closing_amount, expected_amount, difference, opened_at, closed_at, notes`

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.TenantID, &s.RegisterID, &s.OpenedBy, &s.Status, &s.OpeningAmount,
		&s.ClosingAmount, &s.ExpectedAmount, &s.Difference, &s.OpenedAt, &s.ClosedAt, &s.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return s, nil
}

func scanRegister(row pgx.Row) (CashRegister, error) {
	var r CashRegister
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Location, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CashRegister{}, ErrRegisterNotFound
		}
		return CashRegister{}, err
	}
	return r, nil
}

func (r *repository) GetRegister(ctx context.Context, tenantID uuid.UUID, registerID int64) (CashRegister, error) {
	return scanRegister(r.db.QueryRow(ctx, `SELECT id, tenant_id, name, location, status, created_at, updated_at
FROM cash_registers WHERE tenant_id=$1 AND id=$2`, tenantID, registerID))
}

func (r *repository) GetSession(ctx context.Context, tenantID uuid.UUID, sessionID int64) (Session, error) {
	return scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM pos_sessions WHERE tenant_id=$1 AND id=$2`, tenantID, sessionID))
}

func (r *repository) FindActiveSessionByUser(ctx context.Context, tenantID uuid.UUID, userID int64) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM pos_sessions
WHERE tenant_id=$1 AND opened_by=$2 AND status='ACTIVE' ORDER BY opened_at DESC LIMIT 1`, tenantID, userID))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func listMovements(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, tenantID uuid.UUID, sessionID int64) ([]Movement, error) {
	rows, err := q.Query(ctx, `SELECT id, tenant_id, session_id, type, amount, payment_method, reference, notes, created_at
FROM cash_register_movements WHERE tenant_id=$1 AND session_id=$2 ORDER BY id ASC`, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.SessionID, &m.Type, &m.Amount, &m.PaymentMethod, &m.Reference, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) ListMovements(ctx context.Context, tenantID uuid.UUID, sessionID int64) ([]Movement, error) {
	return listMovements(ctx, r.db, tenantID, sessionID)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetRegisterForUpdate(ctx context.Context, tenantID uuid.UUID, registerID int64) (CashRegister, error) {
	return scanRegister(r.tx.QueryRow(ctx, `SELECT id, tenant_id, name, location, status, created_at, updated_at
FROM cash_registers WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, registerID))
}

func (r *txRepository) GetSessionForUpdate(ctx context.Context, tenantID uuid.UUID, sessionID int64) (Session, error) {
	return scanSession(r.tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM pos_sessions WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, sessionID))
}

func (r *txRepository) HasActiveSession(ctx context.Context, tenantID uuid.UUID, registerID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pos_sessions WHERE tenant_id=$1 AND register_id=$2 AND status='ACTIVE')`, tenantID, registerID).Scan(&exists)
	return exists, err
}

// InsertSession relies on the partial unique index over (tenant_id,
// register_id) WHERE status='ACTIVE' as the authoritative guard against
// two concurrent opens slipping past the check.
func (r *txRepository) InsertSession(ctx context.Context, s Session) (Session, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO pos_sessions (tenant_id, register_id, opened_by, status, opening_amount, opened_at, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`, s.TenantID, s.RegisterID, s.OpenedBy, s.Status, s.OpeningAmount, s.OpenedAt, s.Notes)
	if err := row.Scan(&s.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_pos_sessions_active" {
			return Session{}, ErrSessionAlreadyActive
		}
		return Session{}, err
	}
	return s, nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO cash_register_movements (tenant_id, session_id, type, amount, payment_method, reference, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`, m.TenantID, m.SessionID, m.Type, m.Amount, m.PaymentMethod, m.Reference, m.Notes)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return Movement{}, err
	}
	return m, nil
}

func (r *txRepository) ListMovements(ctx context.Context, tenantID uuid.UUID, sessionID int64) ([]Movement, error) {
	return listMovements(ctx, r.tx, tenantID, sessionID)
}

func (r *txRepository) CloseSession(ctx context.Context, s Session) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE pos_sessions
SET status='CLOSED', closing_amount=$3, expected_amount=$4, difference=$5, closed_at=$6, notes=$7
WHERE tenant_id=$1 AND id=$2`, s.TenantID, s.ID, s.ClosingAmount, s.ExpectedAmount, s.Difference, s.ClosedAt, s.Notes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *txRepository) SetRegisterStatus(ctx context.Context, tenantID uuid.UUID, registerID int64, status RegisterStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE cash_registers SET status=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, registerID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRegisterNotFound
	}
	return nil
}
