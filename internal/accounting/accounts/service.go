package accounts

import (
	"context"
	"fmt"

	"github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrDuplicateCode indicates the code is already taken within the tenant.
	ErrDuplicateCode = fmt.Errorf("accounts: %w: code already exists in tenant", shared.ErrConflict)
	// ErrInvalidCode indicates the code is not a 1-10 digit string.
	ErrInvalidCode = fmt.Errorf("accounts: %w: code must be 1-10 digits", shared.ErrValidation)
	// ErrSelfParent indicates an account referencing itself as parent.
	ErrSelfParent = fmt.Errorf("accounts: %w: account cannot be its own parent", shared.ErrValidation)
	// ErrInvalidType indicates an unknown account type or nature.
	ErrInvalidType = fmt.Errorf("accounts: %w: unknown account type or nature", shared.ErrValidation)
)

// CreateInput groups fields to create an account.
type CreateInput struct {
	Code     string
	Name     string
	Type     AccountType
	Nature   AccountNature
	ParentID *int64
}

// UpdateInput groups the mutable fields of an account.
type UpdateInput struct {
	ID       int64
	Name     string
	Type     AccountType
	Nature   AccountNature
	ParentID *int64
	IsActive bool
}

// Service owns chart-of-accounts rules: code shape, derived level, and
// parent integrity within the tenant.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	if !validCode(in.Code) {
		return Account{}, ErrInvalidCode
	}
	if !validType(in.Type) || !validNature(in.Nature) {
		return Account{}, ErrInvalidType
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, tenantID, *in.ParentID); err != nil {
			return Account{}, fmt.Errorf("accounts: parent: %w", err)
		}
	}
	return s.repo.Insert(ctx, Account{
		TenantID: tenantID,
		Code:     in.Code,
		Name:     in.Name,
		Type:     in.Type,
		Nature:   in.Nature,
		ParentID: in.ParentID,
		Level:    LevelForCode(in.Code),
		IsActive: true,
	})
}

// Update mutates an account through the controlled path: the code (and thus
// the level) is immutable, the parent must exist in the same tenant, and an
// account can never become its own parent.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	current, err := s.repo.Get(ctx, tenantID, in.ID)
	if err != nil {
		return Account{}, err
	}
	if !validType(in.Type) || !validNature(in.Nature) {
		return Account{}, ErrInvalidType
	}
	if in.ParentID != nil {
		if *in.ParentID == in.ID {
			return Account{}, ErrSelfParent
		}
		if _, err := s.repo.Get(ctx, tenantID, *in.ParentID); err != nil {
			return Account{}, fmt.Errorf("accounts: parent: %w", err)
		}
	}
	current.Name = in.Name
	current.Type = in.Type
	current.Nature = in.Nature
	current.ParentID = in.ParentID
	current.IsActive = in.IsActive
	return s.repo.Update(ctx, current)
}

func validCode(code string) bool {
	if len(code) < 1 || len(code) > 10 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
