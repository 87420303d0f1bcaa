package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountingShared "github.com/caudal-erp/caudal-erp/internal/accounting/shared"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

type mockAccountsRepo struct {
	accounts map[int64]*Account
	nextID   int64
}

func newMockAccountsRepo() *mockAccountsRepo {
	return &mockAccountsRepo{accounts: make(map[int64]*Account), nextID: 1}
}

func (m *mockAccountsRepo) Get(ctx context.Context, tenantID uuid.UUID, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return Account{}, accountingShared.ErrAccountNotFound
	}
	return *a, nil
}

func (m *mockAccountsRepo) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (Account, error) {
	for _, a := range m.accounts {
		if a.TenantID == tenantID && a.Code == code {
			return *a, nil
		}
	}
	return Account{}, accountingShared.ErrAccountNotFound
}

func (m *mockAccountsRepo) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAccountsRepo) Insert(ctx context.Context, a Account) (Account, error) {
	for _, existing := range m.accounts {
		if existing.TenantID == a.TenantID && existing.Code == a.Code {
			return Account{}, ErrDuplicateCode
		}
	}
	a.ID = m.nextID
	m.nextID++
	stored := a
	m.accounts[a.ID] = &stored
	return a, nil
}

func (m *mockAccountsRepo) Update(ctx context.Context, a Account) (Account, error) {
	stored := a
	m.accounts[a.ID] = &stored
	return a, nil
}

func accountsContext(t *testing.T) context.Context {
	t.Helper()
	return shared.ContextWithTenant(context.Background(), uuid.New())
}

func TestLevelForCode(t *testing.T) {
	cases := map[string]int{
		"1":          1,
		"11":         2,
		"110":        3,
		"1105":       3,
		"110505":     4,
		"1105050001": 4,
	}
	for code, want := range cases {
		assert.Equal(t, want, LevelForCode(code), "code %s", code)
	}
}

func TestCreateAccount(t *testing.T) {
	ctx := accountsContext(t)
	svc := NewService(newMockAccountsRepo())

	account, err := svc.Create(ctx, CreateInput{
		Code:   "110505",
		Name:   "Caja general",
		Type:   TypeAsset,
		Nature: NatureDebit,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, account.Level)
	assert.True(t, account.IsActive)
}

func TestCreateAccountInvalidCode(t *testing.T) {
	ctx := accountsContext(t)
	svc := NewService(newMockAccountsRepo())

	for _, code := range []string{"", "11A5", "12345678901"} {
		_, err := svc.Create(ctx, CreateInput{Code: code, Name: "x", Type: TypeAsset, Nature: NatureDebit})
		assert.ErrorIs(t, err, ErrInvalidCode, "code %q", code)
	}
}

func TestCreateAccountInvalidType(t *testing.T) {
	ctx := accountsContext(t)
	svc := NewService(newMockAccountsRepo())

	_, err := svc.Create(ctx, CreateInput{Code: "11", Name: "x", Type: "WEIRD", Nature: NatureDebit})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(ctx, CreateInput{Code: "11", Name: "x", Type: TypeAsset, Nature: "SIDEWAYS"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	ctx := accountsContext(t)
	svc := NewService(newMockAccountsRepo())

	_, err := svc.Create(ctx, CreateInput{Code: "1105", Name: "Caja", Type: TypeAsset, Nature: NatureDebit})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Code: "1105", Name: "Caja otra vez", Type: TypeAsset, Nature: NatureDebit})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateAccountMissingParent(t *testing.T) {
	ctx := accountsContext(t)
	svc := NewService(newMockAccountsRepo())

	parentID := int64(99)
	_, err := svc.Create(ctx, CreateInput{Code: "1105", Name: "Caja", Type: TypeAsset, Nature: NatureDebit, ParentID: &parentID})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateAccountSelfParent(t *testing.T) {
	ctx := accountsContext(t)
	svc := NewService(newMockAccountsRepo())

	account, err := svc.Create(ctx, CreateInput{Code: "1105", Name: "Caja", Type: TypeAsset, Nature: NatureDebit})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateInput{
		ID:       account.ID,
		Name:     account.Name,
		Type:     account.Type,
		Nature:   account.Nature,
		ParentID: &account.ID,
		IsActive: true,
	})
	assert.ErrorIs(t, err, ErrSelfParent)
}

func TestUpdateAccountDeactivate(t *testing.T) {
	ctx := accountsContext(t)
	repo := newMockAccountsRepo()
	svc := NewService(repo)

	account, err := svc.Create(ctx, CreateInput{Code: "1105", Name: "Caja", Type: TypeAsset, Nature: NatureDebit})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateInput{
		ID:       account.ID,
		Name:     "Caja general",
		Type:     account.Type,
		Nature:   account.Nature,
		IsActive: false,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Caja general", updated.Name)
	// code and level stay put
	assert.Equal(t, "1105", repo.accounts[account.ID].Code)
	assert.Equal(t, 3, repo.accounts[account.ID].Level)
}

func TestAccountTenantIsolation(t *testing.T) {
	repo := newMockAccountsRepo()
	svc := NewService(repo)

	ctxA := accountsContext(t)
	account, err := svc.Create(ctxA, CreateInput{Code: "1105", Name: "Caja", Type: TypeAsset, Nature: NatureDebit})
	require.NoError(t, err)

	ctxB := accountsContext(t)
	_, err = svc.Get(ctxB, account.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
