package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantRoundTrip(t *testing.T) {
	tenantID := uuid.New()
	ctx := ContextWithTenant(context.Background(), tenantID)

	got, err := TenantFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestTenantUnbound(t *testing.T) {
	_, err := TenantFromContext(context.Background())
	assert.ErrorIs(t, err, ErrTenantUnbound)

	// a nil uuid is as good as no tenant
	_, err = TenantFromContext(ContextWithTenant(context.Background(), uuid.Nil))
	assert.ErrorIs(t, err, ErrTenantUnbound)
}

func TestActorRoundTrip(t *testing.T) {
	ctx := ContextWithActor(context.Background(), 42)
	assert.Equal(t, int64(42), ActorFromContext(ctx))
	assert.Equal(t, int64(0), ActorFromContext(context.Background()))
}
