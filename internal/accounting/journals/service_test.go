package journals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	"github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	internalShared "github.com/caudal-erp/caudal-erp/internal/shared"
)

type mockJournalsRepo struct {
	entries  map[int64]*JournalEntry
	lines    map[int64][]JournalLine
	accounts map[int64]bool // accountID -> active
	periods  map[int64]periods.Period
	// periodLocks counts locking reads per period so tests can assert
	// the row lock was taken inside the transaction.
	periodLocks map[int64]int
	nextID      int64
}

func newMockJournalsRepo() *mockJournalsRepo {
	return &mockJournalsRepo{
		entries:     make(map[int64]*JournalEntry),
		lines:       make(map[int64][]JournalLine),
		accounts:    make(map[int64]bool),
		periods:     make(map[int64]periods.Period),
		periodLocks: make(map[int64]int),
		nextID:      1,
	}
}

func (m *mockJournalsRepo) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	e, ok := m.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	out := *e
	out.Lines = m.lines[entryID]
	return out, nil
}

func (m *mockJournalsRepo) List(ctx context.Context, tenantID uuid.UUID) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range m.entries {
		if e.TenantID == tenantID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockJournalsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockJournalsTx{mock: m})
}

type mockJournalsTx struct {
	mock *mockJournalsRepo
}

func (t *mockJournalsTx) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	entry.ID = t.mock.nextID
	t.mock.nextID++
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	stored := entry
	t.mock.entries[entry.ID] = &stored
	return entry, nil
}

func (t *mockJournalsTx) InsertLines(ctx context.Context, entryID int64, lines []DraftLineInput) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for i, line := range lines {
		out = append(out, JournalLine{
			ID:        int64(i + 1),
			EntryID:   entryID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	t.mock.lines[entryID] = out
	return out, nil
}

func (t *mockJournalsTx) GetEntryForUpdate(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	e, ok := t.mock.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	return *e, nil
}

func (t *mockJournalsTx) MarkPosted(ctx context.Context, tenantID uuid.UUID, entryID int64) error {
	e, ok := t.mock.entries[entryID]
	if !ok {
		return shared.ErrJournalNotFound
	}
	e.Status = JournalStatusPosted
	return nil
}

func (t *mockJournalsTx) MarkVoided(ctx context.Context, tenantID uuid.UUID, entryID int64, reason string) error {
	e, ok := t.mock.entries[entryID]
	if !ok {
		return shared.ErrJournalNotFound
	}
	e.Status = JournalStatusVoided
	e.VoidReason = reason
	return nil
}

func (t *mockJournalsTx) AccountState(ctx context.Context, tenantID uuid.UUID, accountID int64) (bool, bool, error) {
	active, ok := t.mock.accounts[accountID]
	return ok, active, nil
}

func (t *mockJournalsTx) GetPeriodForUpdate(ctx context.Context, tenantID uuid.UUID, periodID int64) (periods.Period, error) {
	t.mock.periodLocks[periodID]++
	p, ok := t.mock.periods[periodID]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func tenantContext(t *testing.T) (context.Context, uuid.UUID) {
	t.Helper()
	tenantID := uuid.New()
	return internalShared.ContextWithTenant(context.Background(), tenantID), tenantID
}

func seededRepo(tenantID uuid.UUID) *mockJournalsRepo {
	repo := newMockJournalsRepo()
	repo.accounts[10] = true
	repo.accounts[20] = true
	repo.accounts[30] = false
	repo.periods[1] = periods.Period{ID: 1, TenantID: tenantID, Status: periods.PeriodStatusOpen}
	repo.periods[2] = periods.Period{ID: 2, TenantID: tenantID, Status: periods.PeriodStatusClosed}
	return repo
}

func balancedInput(periodID int64) DraftInput {
	return DraftInput{
		PeriodID: periodID,
		Memo:     "monthly rent",
		Lines: []DraftLineInput{
			{AccountID: 10, Debit: 100000},
			{AccountID: 20, Credit: 100000},
		},
	}
}

func TestCreateDraftBalanced(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)
	assert.Equal(t, JournalStatusDraft, entry.Status)
	assert.Equal(t, SourceManual, entry.Source)
	assert.Len(t, entry.Lines, 2)
}

func TestCreateDraftUnbalanced(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	input := DraftInput{
		PeriodID: 1,
		Lines: []DraftLineInput{
			{AccountID: 10, Debit: 100000},
			{AccountID: 20, Credit: 50000},
		},
	}
	_, err := svc.CreateDraft(ctx, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, internalShared.ErrValidation)
	assert.Empty(t, repo.entries)
}

func TestCreateDraftTooFewLines(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	svc := NewService(seededRepo(tenantID), nil)

	_, err := svc.CreateDraft(ctx, DraftInput{
		PeriodID: 1,
		Lines:    []DraftLineInput{{AccountID: 10, Debit: 50}},
	})
	assert.ErrorIs(t, err, shared.ErrTooFewLines)
}

func TestCreateDraftLineBothSides(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	svc := NewService(seededRepo(tenantID), nil)

	_, err := svc.CreateDraft(ctx, DraftInput{
		PeriodID: 1,
		Lines: []DraftLineInput{
			{AccountID: 10, Debit: 50, Credit: 50},
			{AccountID: 20, Credit: 0},
		},
	})
	assert.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestCreateDraftInactiveAccount(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	svc := NewService(seededRepo(tenantID), nil)

	_, err := svc.CreateDraft(ctx, DraftInput{
		PeriodID: 1,
		Lines: []DraftLineInput{
			{AccountID: 30, Debit: 100},
			{AccountID: 20, Credit: 100},
		},
	})
	assert.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestCreateDraftUnknownAccount(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	svc := NewService(seededRepo(tenantID), nil)

	_, err := svc.CreateDraft(ctx, DraftInput{
		PeriodID: 1,
		Lines: []DraftLineInput{
			{AccountID: 99, Debit: 100},
			{AccountID: 20, Credit: 100},
		},
	})
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestPostDraftInOpenPeriod(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, JournalStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
}

func TestPostIntoClosedPeriod(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(2))
	require.NoError(t, err)

	_, err = svc.Post(ctx, entry.ID)
	assert.ErrorIs(t, err, shared.ErrPeriodClosed)
	assert.Equal(t, JournalStatusDraft, repo.entries[entry.ID].Status)
}

func TestPostTakesPeriodRowLock(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)
	locksBefore := repo.periodLocks[1]

	_, err = svc.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, locksBefore+1, repo.periodLocks[1],
		"posting must re-read the period under a row lock inside the transaction")
}

func TestPostSeesCloseThatLandedAfterDraft(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)

	p := repo.periods[1]
	p.Status = periods.PeriodStatusClosed
	repo.periods[1] = p

	_, err = svc.Post(ctx, entry.ID)
	assert.ErrorIs(t, err, shared.ErrPeriodClosed)
	assert.Equal(t, JournalStatusDraft, repo.entries[entry.ID].Status)
}

func TestCreateDraftTakesPeriodRowLock(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	_, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.periodLocks[1])
}

func TestCreateDraftUnknownPeriod(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	_, err := svc.CreateDraft(ctx, balancedInput(99))
	assert.ErrorIs(t, err, shared.ErrPeriodNotFound)
	assert.Empty(t, repo.entries)
}

func TestPostTwice(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)
	_, err = svc.Post(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.Post(ctx, entry.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestVoidPostedEntry(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)
	_, err = svc.Post(ctx, entry.ID)
	require.NoError(t, err)

	voided, err := svc.Void(ctx, VoidInput{EntryID: entry.ID, Reason: "duplicate capture"})
	require.NoError(t, err)
	assert.Equal(t, JournalStatusVoided, voided.Status)
	assert.Equal(t, "duplicate capture", voided.VoidReason)
	// amounts survive the void untouched
	assert.Len(t, repo.lines[entry.ID], 2)
}

func TestVoidRequiresReason(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	svc := NewService(seededRepo(tenantID), nil)

	_, err := svc.Void(ctx, VoidInput{EntryID: 1, Reason: "   "})
	assert.ErrorIs(t, err, shared.ErrVoidReasonRequired)
}

func TestVoidTwice(t *testing.T) {
	ctx, tenantID := tenantContext(t)
	repo := seededRepo(tenantID)
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(ctx, balancedInput(1))
	require.NoError(t, err)
	_, err = svc.Void(ctx, VoidInput{EntryID: entry.ID, Reason: "entered in error"})
	require.NoError(t, err)

	_, err = svc.Void(ctx, VoidInput{EntryID: entry.ID, Reason: "again"})
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestTenantRequired(t *testing.T) {
	svc := NewService(newMockJournalsRepo(), nil)
	_, err := svc.CreateDraft(context.Background(), balancedInput(1))
	assert.True(t, errors.Is(err, internalShared.ErrTenantUnbound))
}
