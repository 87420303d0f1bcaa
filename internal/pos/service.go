package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caudal-erp/caudal-erp/internal/identity"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

// RoleLookup resolves a user's role for the ownership check.
type RoleLookup interface {
	RoleOf(ctx context.Context, tenantID uuid.UUID, userID int64) (identity.Role, error)
}

// AuditPort records lifecycle events, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// OpenInput groups fields required to open a session.
type OpenInput struct {
	RegisterID    int64
	OpeningAmount float64
	UserID        int64
	Notes         string
}

// MovementInput groups fields for a manual cash movement.
type MovementInput struct {
	SessionID int64
	Action    MovementType
	Amount    float64
	Reference string
	Notes     string
	ActorID   int64
}

// SaleInput groups fields for system-originated sale/refund movements.
type SaleInput struct {
	SessionID     int64
	Amount        float64
	PaymentMethod PaymentMethod
	Reference     string
}

// CloseInput groups fields required to close a session.
type CloseInput struct {
	SessionID      int64
	DeclaredAmount float64
	UserID         int64
	Notes          string
}

// Service owns POS session lifecycle, the append-only movement trail and
// cash reconciliation on close.
type Service struct {
	repo  Repository
	roles RoleLookup
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, roles RoleLookup, audit AuditPort) *Service {
	return &Service{repo: repo, roles: roles, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OpenSession starts a shift on a register. The session row, its OPENING
// movement and the register status flip commit together or not at all.
func (s *Service) OpenSession(ctx context.Context, in OpenInput) (Session, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Session{}, err
	}
	if in.OpeningAmount < 0 {
		return Session{}, ErrNonPositiveAmount
	}
	var session Session
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		register, err := tx.GetRegisterForUpdate(ctx, tenantID, in.RegisterID)
		if err != nil {
			return err
		}
		active, err := tx.HasActiveSession(ctx, tenantID, in.RegisterID)
		if err != nil {
			return err
		}
		if active {
			return ErrSessionAlreadyActive
		}
		session, err = tx.InsertSession(ctx, Session{
			TenantID:      tenantID,
			RegisterID:    register.ID,
			OpenedBy:      in.UserID,
			Status:        SessionStatusActive,
			OpeningAmount: in.OpeningAmount,
			OpenedAt:      s.now(),
			Notes:         in.Notes,
		})
		if err != nil {
			return err
		}
		if _, err := tx.InsertMovement(ctx, Movement{
			TenantID:  tenantID,
			SessionID: session.ID,
			Type:      MovementOpening,
			Amount:    in.OpeningAmount,
		}); err != nil {
			return err
		}
		return tx.SetRegisterStatus(ctx, tenantID, register.ID, RegisterStatusOpen)
	})
	if err != nil {
		return Session{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: tenantID,
			ActorID:  in.UserID,
			Action:   "pos.session.open",
			Entity:   "pos_session",
			EntityID: fmt.Sprintf("%d", session.ID),
			Meta:     map[string]any{"register_id": in.RegisterID, "opening_amount": in.OpeningAmount},
			At:       s.now(),
		})
	}
	return session, nil
}

// RegisterCashMovement appends a CASH_IN or CASH_OUT row. Totals are never
// touched; expected cash is always derived by replay.
func (s *Service) RegisterCashMovement(ctx context.Context, in MovementInput) (Movement, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Movement{}, err
	}
	if in.Action != MovementCashIn && in.Action != MovementCashOut {
		return Movement{}, ErrInvalidMovement
	}
	if in.Amount <= 0 {
		return Movement{}, ErrNonPositiveAmount
	}
	var movement Movement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		session, err := tx.GetSessionForUpdate(ctx, tenantID, in.SessionID)
		if err != nil {
			return err
		}
		if session.Status != SessionStatusActive {
			return ErrSessionNotActive
		}
		if err := s.authorize(ctx, tenantID, session, in.ActorID); err != nil {
			return err
		}
		movement, err = tx.InsertMovement(ctx, Movement{
			TenantID:  tenantID,
			SessionID: session.ID,
			Type:      in.Action,
			Amount:    in.Amount,
			Reference: in.Reference,
			Notes:     in.Notes,
		})
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// RecordSale appends a SALE movement on behalf of the sales subsystem.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (Movement, error) {
	return s.recordSystemMovement(ctx, in, MovementSale)
}

// RecordRefund appends a REFUND movement on behalf of the sales subsystem.
func (s *Service) RecordRefund(ctx context.Context, in SaleInput) (Movement, error) {
	return s.recordSystemMovement(ctx, in, MovementRefund)
}

func (s *Service) recordSystemMovement(ctx context.Context, in SaleInput, mtype MovementType) (Movement, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Movement{}, err
	}
	if in.Amount <= 0 {
		return Movement{}, ErrNonPositiveAmount
	}
	method := in.PaymentMethod
	var movement Movement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		session, err := tx.GetSessionForUpdate(ctx, tenantID, in.SessionID)
		if err != nil {
			return err
		}
		if session.Status != SessionStatusActive {
			return ErrSessionNotActive
		}
		movement, err = tx.InsertMovement(ctx, Movement{
			TenantID:      tenantID,
			SessionID:     session.ID,
			Type:          mtype,
			Amount:        in.Amount,
			PaymentMethod: &method,
			Reference:     in.Reference,
		})
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// CloseSession reconciles declared against expected cash and ends the
// shift. Expected cash comes from replaying every movement of the session;
// difference is signed, positive meaning surplus, and carries no threshold.
func (s *Service) CloseSession(ctx context.Context, in CloseInput) (Session, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Session{}, err
	}
	var session Session
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetSessionForUpdate(ctx, tenantID, in.SessionID)
		if err != nil {
			return err
		}
		if current.Status != SessionStatusActive {
			return ErrSessionNotActive
		}
		if err := s.authorize(ctx, tenantID, current, in.UserID); err != nil {
			return err
		}
		movements, err := tx.ListMovements(ctx, tenantID, current.ID)
		if err != nil {
			return err
		}
		expected := ExpectedCash(movements)
		difference := in.DeclaredAmount - expected
		if _, err := tx.InsertMovement(ctx, Movement{
			TenantID:  tenantID,
			SessionID: current.ID,
			Type:      MovementClosing,
			Amount:    in.DeclaredAmount,
		}); err != nil {
			return err
		}
		closedAt := s.now()
		current.Status = SessionStatusClosed
		current.ClosingAmount = &in.DeclaredAmount
		current.ExpectedAmount = &expected
		current.Difference = &difference
		current.ClosedAt = &closedAt
		if in.Notes != "" {
			current.Notes = in.Notes
		}
		if err := tx.CloseSession(ctx, current); err != nil {
			return err
		}
		if err := tx.SetRegisterStatus(ctx, tenantID, current.RegisterID, RegisterStatusClosed); err != nil {
			return err
		}
		session = current
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: tenantID,
			ActorID:  in.UserID,
			Action:   "pos.session.close",
			Entity:   "pos_session",
			EntityID: fmt.Sprintf("%d", session.ID),
			Meta: map[string]any{
				"declared": in.DeclaredAmount,
				"expected": *session.ExpectedAmount,
			},
			At: s.now(),
		})
	}
	return session, nil
}

// CurrentSession returns the caller's ACTIVE session or nil.
func (s *Service) CurrentSession(ctx context.Context, userID int64) (*Session, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.FindActiveSessionByUser(ctx, tenantID, userID)
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, sessionID int64) (Session, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Session{}, err
	}
	return s.repo.GetSession(ctx, tenantID, sessionID)
}

// GenerateReport builds an X or Z report for a session. X snapshots any
// session; Z requires the session to be CLOSED.
func (s *Service) GenerateReport(ctx context.Context, sessionID int64, kind ReportKind) (Report, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Report{}, err
	}
	session, err := s.repo.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return Report{}, err
	}
	movements, err := s.repo.ListMovements(ctx, tenantID, sessionID)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(kind, session, movements, s.now())
}

// authorize passes for the session owner; anyone else must hold a
// privileged role. Unknown users fail closed.
func (s *Service) authorize(ctx context.Context, tenantID uuid.UUID, session Session, actorID int64) error {
	if actorID == session.OpenedBy {
		return nil
	}
	role, err := s.roles.RoleOf(ctx, tenantID, actorID)
	if err != nil {
		return ErrNotSessionOwner
	}
	if !role.Privileged() {
		return ErrNotSessionOwner
	}
	return nil
}
