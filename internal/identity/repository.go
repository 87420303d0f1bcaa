package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caudal-erp/caudal-erp/internal/shared"
)

// ErrUserNotFound indicates the user is absent or outside the tenant.
var ErrUserNotFound = fmt.Errorf("identity: user %w", shared.ErrNotFound)

// Repository provides PostgreSQL backed user lookups.
type Repository interface {
	GetUser(ctx context.Context, tenantID uuid.UUID, userID int64) (User, error)
	RoleOf(ctx context.Context, tenantID uuid.UUID, userID int64) (Role, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetUser(ctx context.Context, tenantID uuid.UUID, userID int64) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, email, name, role, is_active, created_at, updated_at
FROM users WHERE tenant_id=$1 AND id=$2`, tenantID, userID).
		Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) RoleOf(ctx context.Context, tenantID uuid.UUID, userID int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE tenant_id=$1 AND id=$2 AND is_active`, tenantID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return role, nil
}
