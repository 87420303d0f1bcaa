package periods

import (
	"context"
	"fmt"
	"strings"
	"time"

	accountingShared "github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrBadDateRange indicates end <= start.
	ErrBadDateRange = fmt.Errorf("periods: %w: end date must be after start date", shared.ErrValidation)
	// ErrAlreadyClosed indicates a second close attempt.
	ErrAlreadyClosed = fmt.Errorf("periods: %w: period already closed", shared.ErrState)
	// ErrNameRequired indicates a blank period name.
	ErrNameRequired = fmt.Errorf("periods: %w: name required", shared.ErrValidation)
)

// CreateInput groups fields required to open a period.
type CreateInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Notes     string
}

// AuditPort records lifecycle events, best effort.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the period lifecycle: periods are created OPEN and move to
// CLOSED exactly once, never while unposted drafts reference them.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Period{}, err
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}

// Create validates the range, rejects overlap with any existing period in
// the tenant, and inserts the new period as OPEN.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Period{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return Period{}, ErrNameRequired
	}
	if !in.EndDate.After(in.StartDate) {
		return Period{}, ErrBadDateRange
	}
	var period Period
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		conflict, err := tx.RangeConflict(ctx, tenantID, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if conflict {
			return accountingShared.ErrPeriodOverlap
		}
		period, err = tx.Insert(ctx, Period{
			TenantID:  tenantID,
			Name:      in.Name,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Status:    PeriodStatusOpen,
			Notes:     in.Notes,
		})
		return err
	})
	if err != nil {
		return Period{}, err
	}
	return period, nil
}

// Close transitions the period to CLOSED. It fails while any DRAFT journal
// entry references the period, and a closed period never reopens.
func (s *Service) Close(ctx context.Context, periodID, actorID int64) (Period, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Period{}, err
	}
	var period Period
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if current.Status == PeriodStatusClosed {
			return ErrAlreadyClosed
		}
		drafts, err := tx.CountDraftEntries(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return fmt.Errorf("periods: %w: %d draft journal entries reference this period", shared.ErrValidation, drafts)
		}
		closedAt := s.now()
		if err := tx.MarkClosed(ctx, tenantID, periodID, closedAt, actorID); err != nil {
			return err
		}
		period = current
		period.Status = PeriodStatusClosed
		period.ClosedAt = &closedAt
		period.ClosedBy = &actorID
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: tenantID,
			ActorID:  actorID,
			Action:   "period.close",
			Entity:   "accounting_period",
			EntityID: fmt.Sprintf("%d", periodID),
			Meta:     map[string]any{"name": period.Name},
			At:       s.now(),
		})
	}
	return period, nil
}
