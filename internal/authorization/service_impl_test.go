package authorization

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewMemoryEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, gatedomain.RoleAdmin, ObjectMonetization, ActionMonetizationWrite))
	assert.NoError(t, svc.Authorize(ctx, gatedomain.RoleAdmin, ObjectUser, ActionUserWrite))
	assert.NoError(t, svc.Authorize(ctx, gatedomain.RoleAdmin, ObjectPurchase, ActionPurchaseWrite))
}

func TestAuthorizeUserForbidden(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, role := range []gatedomain.Role{gatedomain.RoleUser, ""} {
		err := svc.Authorize(ctx, role, ObjectMonetization, ActionMonetizationWrite)
		assert.ErrorIs(t, err, ErrForbidden)
	}
	assert.ErrorIs(t, svc.Authorize(ctx, gatedomain.RoleAdmin, ObjectUser, "user.delete"), ErrForbidden)
}

func TestAuthorizeValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, gatedomain.RoleAdmin, " ", ActionUserWrite), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, gatedomain.RoleAdmin, ObjectUser, ""), ErrInvalidAction)
}

func TestNewEnforcerSeedsOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:casbin?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	_, err = NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 3)
}
