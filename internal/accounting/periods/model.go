package periods

import (
	"time"

	"github.com/google/uuid"
)

// PeriodStatus enumerates accounting period lifecycle stages.
// CLOSED is terminal; no operation reopens a closed period.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period is a tenant-scoped accounting period. Ranges never overlap
// within a tenant.
type Period struct {
	ID        int64
	TenantID  uuid.UUID
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	Notes     string
	ClosedAt  *time.Time
	ClosedBy  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
