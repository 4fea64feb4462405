package service

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type usersStub map[int64]gatedomain.UserEntitlement

var errUnknownUser = errors.New("not_found")

func (u usersStub) GetEntitlement(_ context.Context, userID int64) (gatedomain.UserEntitlement, error) {
	user, ok := u[userID]
	if !ok {
		return gatedomain.UserEntitlement{}, errUnknownUser
	}
	return user, nil
}

func newGuard(t *testing.T, model monetizationdomain.Model, ledger gatedomain.Ledger) gatedomain.Guard {
	t.Helper()
	return NewGuard(GuardParam{
		Log:      zap.NewNop(),
		Resolver: newResolver(ledger),
		Ledger:   ledger,
		Users: usersStub{
			1: {ID: 1, Role: gatedomain.RoleUser},
			2: {ID: 2, Role: gatedomain.RoleAdmin},
		},
		Config: config.NewStaticMonetizationHolder(monetizationdomain.Config{MonetizationModel: model}),
	})
}

func TestGuardRecordsBeforeAction(t *testing.T) {
	ledger := newLedger(t)
	guard := newGuard(t, monetizationdomain.ModelUsageBased, ledger)
	ctx := context.Background()

	var seen int64
	decision, err := guard.Run(ctx, 1, studio, func(ctx context.Context) error {
		usage, err := ledger.GetUsage(ctx, 1, studio)
		seen = usage.Count
		return err
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NotNil(t, decision.Usage)
	assert.Equal(t, int64(1), decision.Usage.Count)
	assert.Equal(t, int64(1), seen, "usage is recorded before the action runs")
}

func TestGuardBlocksWhenQuotaExhausted(t *testing.T) {
	ledger := newLedger(t)
	guard := newGuard(t, monetizationdomain.ModelUsageBased, ledger)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.Run(ctx, 1, studio, nil)
		require.NoError(t, err)
	}

	ran := false
	decision, err := guard.Run(ctx, 1, studio, func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, gatedomain.ErrAccessBlocked)
	assert.False(t, ran)
	assert.Equal(t, gatedomain.ReasonQuotaExhausted, decision.Reason)

	usage, err := ledger.GetUsage(ctx, 1, studio)
	require.NoError(t, err)
	assert.Equal(t, int64(5), usage.Count, "blocked runs are not charged")
}

func TestGuardCheckDoesNotCharge(t *testing.T) {
	ledger := newLedger(t)
	guard := newGuard(t, monetizationdomain.ModelUsageBased, ledger)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := guard.Check(ctx, 1, studio)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	usage, err := ledger.GetUsage(ctx, 1, studio)
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage.Count)
}

func TestGuardDoesNotMeterAdmins(t *testing.T) {
	ledger := &ledgerStub{}
	guard := newGuard(t, monetizationdomain.ModelUsageBased, ledger)

	decision, err := guard.Run(context.Background(), 2, studio, nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, ledger.records)
}

func TestGuardDoesNotMeterOtherModels(t *testing.T) {
	for _, model := range []monetizationdomain.Model{monetizationdomain.ModelFree, monetizationdomain.Model("Lifetime")} {
		ledger := &ledgerStub{}
		guard := newGuard(t, model, ledger)

		decision, err := guard.Run(context.Background(), 1, studio, nil)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 0, ledger.records, "model %s", model)
	}
}

func TestGuardReturnsActionError(t *testing.T) {
	guard := newGuard(t, monetizationdomain.ModelFree, &ledgerStub{})
	boom := errors.New("generation failed")

	decision, err := guard.Run(context.Background(), 1, studio, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, decision.Allowed)
}

func TestGuardUnknownUser(t *testing.T) {
	guard := newGuard(t, monetizationdomain.ModelFree, &ledgerStub{})

	_, err := guard.Check(context.Background(), 99, studio)
	assert.ErrorIs(t, err, errUnknownUser)
}
