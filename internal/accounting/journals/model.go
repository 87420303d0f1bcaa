package journals

import (
	"time"

	"github.com/google/uuid"
)

// JournalStatus enumerates the entry lifecycle. Once POSTED an entry is an
// immutable ledger fact; the only transition left is the void, which changes
// status and reason but never amounts.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoided JournalStatus = "VOIDED"
)

// SourceManual marks entries captured by hand rather than by a subsystem.
const SourceManual = "MANUAL"

// JournalEntry captures a double-entry posting and its lines.
type JournalEntry struct {
	ID         int64
	TenantID   uuid.UUID
	PeriodID   int64
	Source     string
	Memo       string
	Status     JournalStatus
	VoidReason string
	CreatedBy  int64
	PostedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []JournalLine
}

// JournalLine stores a debit or credit amount for an account. Debit and
// credit are mutually exclusive per line.
type JournalLine struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Debit     float64
	Credit    float64
	CreatedAt time.Time
}
