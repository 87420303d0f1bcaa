package periods

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountingShared "github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

type mockPeriodsRepo struct {
	periods map[int64]*Period
	drafts  map[int64]int // periodID -> draft entry count
	nextID  int64
}

func newMockPeriodsRepo() *mockPeriodsRepo {
	return &mockPeriodsRepo{
		periods: make(map[int64]*Period),
		drafts:  make(map[int64]int),
		nextID:  1,
	}
}

func (m *mockPeriodsRepo) Get(ctx context.Context, tenantID uuid.UUID, id int64) (Period, error) {
	p, ok := m.periods[id]
	if !ok || p.TenantID != tenantID {
		return Period{}, accountingShared.ErrPeriodNotFound
	}
	return *p, nil
}

func (m *mockPeriodsRepo) List(ctx context.Context, tenantID uuid.UUID) ([]Period, error) {
	var out []Period
	for _, p := range m.periods {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPeriodsRepo) FindOpenByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (Period, error) {
	for _, p := range m.periods {
		if p.TenantID == tenantID && p.Status == PeriodStatusOpen &&
			!date.Before(p.StartDate) && !date.After(p.EndDate) {
			return *p, nil
		}
	}
	return Period{}, accountingShared.ErrPeriodNotFound
}

func (m *mockPeriodsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockPeriodsTx{mock: m})
}

type mockPeriodsTx struct {
	mock *mockPeriodsRepo
}

func (t *mockPeriodsTx) GetForUpdate(ctx context.Context, tenantID uuid.UUID, id int64) (Period, error) {
	return t.mock.Get(ctx, tenantID, id)
}

func (t *mockPeriodsTx) RangeConflict(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (bool, error) {
	for _, p := range t.mock.periods {
		if p.TenantID != tenantID {
			continue
		}
		if !start.After(p.EndDate) && !end.Before(p.StartDate) {
			return true, nil
		}
	}
	return false, nil
}

func (t *mockPeriodsTx) Insert(ctx context.Context, p Period) (Period, error) {
	p.ID = t.mock.nextID
	t.mock.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := p
	t.mock.periods[p.ID] = &stored
	return p, nil
}

func (t *mockPeriodsTx) CountDraftEntries(ctx context.Context, tenantID uuid.UUID, periodID int64) (int, error) {
	return t.mock.drafts[periodID], nil
}

func (t *mockPeriodsTx) MarkClosed(ctx context.Context, tenantID uuid.UUID, periodID int64, closedAt time.Time, closedBy int64) error {
	p, ok := t.mock.periods[periodID]
	if !ok {
		return accountingShared.ErrPeriodNotFound
	}
	p.Status = PeriodStatusClosed
	p.ClosedAt = &closedAt
	p.ClosedBy = &closedBy
	return nil
}

func periodsContext(t *testing.T) (context.Context, uuid.UUID) {
	t.Helper()
	tenantID := uuid.New()
	return shared.ContextWithTenant(context.Background(), tenantID), tenantID
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreatePeriod(t *testing.T) {
	ctx, _ := periodsContext(t)
	svc := NewService(newMockPeriodsRepo(), nil)

	period, err := svc.Create(ctx, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusOpen, period.Status)
	assert.NotZero(t, period.ID)
}

func TestCreatePeriodBadRange(t *testing.T) {
	ctx, _ := periodsContext(t)
	svc := NewService(newMockPeriodsRepo(), nil)

	_, err := svc.Create(ctx, CreateInput{
		Name:      "backwards",
		StartDate: date(2026, time.February, 1),
		EndDate:   date(2026, time.January, 1),
	})
	assert.ErrorIs(t, err, ErrBadDateRange)

	// zero-length range is also invalid
	_, err = svc.Create(ctx, CreateInput{
		Name:      "empty",
		StartDate: date(2026, time.March, 1),
		EndDate:   date(2026, time.March, 1),
	})
	assert.ErrorIs(t, err, ErrBadDateRange)
}

func TestCreatePeriodNameRequired(t *testing.T) {
	ctx, _ := periodsContext(t)
	svc := NewService(newMockPeriodsRepo(), nil)

	_, err := svc.Create(ctx, CreateInput{
		Name:      "  ",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestCreatePeriodOverlap(t *testing.T) {
	ctx, _ := periodsContext(t)
	svc := NewService(newMockPeriodsRepo(), nil)

	_, err := svc.Create(ctx, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		Name:      "overlapping",
		StartDate: date(2026, time.January, 15),
		EndDate:   date(2026, time.February, 15),
	})
	assert.ErrorIs(t, err, accountingShared.ErrPeriodOverlap)
}

func TestCreatePeriodOtherTenantNoConflict(t *testing.T) {
	repo := newMockPeriodsRepo()
	svc := NewService(repo, nil)

	ctxA, _ := periodsContext(t)
	_, err := svc.Create(ctxA, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	require.NoError(t, err)

	ctxB, _ := periodsContext(t)
	_, err = svc.Create(ctxB, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	assert.NoError(t, err)
}

func TestClosePeriod(t *testing.T) {
	ctx, _ := periodsContext(t)
	repo := newMockPeriodsRepo()
	svc := NewService(repo, nil)
	closedAt := date(2026, time.February, 2)
	svc.WithNow(func() time.Time { return closedAt })

	period, err := svc.Create(ctx, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	require.NoError(t, err)

	closed, err := svc.Close(ctx, period.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, closedAt, *closed.ClosedAt)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, int64(42), *closed.ClosedBy)
}

func TestClosePeriodWithDrafts(t *testing.T) {
	ctx, _ := periodsContext(t)
	repo := newMockPeriodsRepo()
	svc := NewService(repo, nil)

	period, err := svc.Create(ctx, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	require.NoError(t, err)
	repo.drafts[period.ID] = 3

	_, err = svc.Close(ctx, period.ID, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, PeriodStatusOpen, repo.periods[period.ID].Status)
}

func TestClosePeriodTwice(t *testing.T) {
	ctx, _ := periodsContext(t)
	svc := NewService(newMockPeriodsRepo(), nil)

	period, err := svc.Create(ctx, CreateInput{
		Name:      "2026-01",
		StartDate: date(2026, time.January, 1),
		EndDate:   date(2026, time.January, 31),
	})
	require.NoError(t, err)

	_, err = svc.Close(ctx, period.ID, 1)
	require.NoError(t, err)
	_, err = svc.Close(ctx, period.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}
