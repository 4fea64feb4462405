package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/grantgate/internal/clock"
	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"github.com/smallbiznis/grantgate/internal/usage/repository"
	usageservice "github.com/smallbiznis/grantgate/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

const studio = "AI Grant Writing Studio"

var allModels = []monetizationdomain.Model{
	monetizationdomain.ModelFree,
	monetizationdomain.ModelSubscription,
	monetizationdomain.ModelPayPerFeature,
	monetizationdomain.ModelUsageBased,
	monetizationdomain.Model("Lifetime"),
}

type ledgerStub struct {
	usage   usagedomain.Usage
	err     error
	gets    int
	records int
}

func (l *ledgerStub) GetUsage(context.Context, int64, string) (usagedomain.Usage, error) {
	l.gets++
	return l.usage, l.err
}

func (l *ledgerStub) RecordUsage(context.Context, int64, string) (usagedomain.Usage, error) {
	l.records++
	return l.usage, l.err
}

func newLedger(t *testing.T) usagedomain.Service {
	t.Helper()
	return usageservice.NewService(usageservice.ServiceParam{
		Cfg:   config.Config{Usage: config.UsageConfig{MonthlyLimit: 5}},
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)),
		Store: repository.NewMemory(),
	})
}

func newResolver(ledger gatedomain.Ledger) gatedomain.Resolver {
	return NewResolver(ResolverParam{Log: zap.NewNop(), Ledger: ledger})
}

func cfg(model monetizationdomain.Model) monetizationdomain.Config {
	return monetizationdomain.Config{MonetizationModel: model}
}

func TestEvaluateAccessDecisionTable(t *testing.T) {
	member := gatedomain.UserEntitlement{ID: 1, Role: gatedomain.RoleUser}
	subscriber := gatedomain.UserEntitlement{ID: 2, Role: gatedomain.RoleUser, IsSubscribed: true}
	buyer := gatedomain.UserEntitlement{ID: 3, Role: gatedomain.RoleUser, PurchasedFeatures: map[string]bool{studio: true}}

	cases := []struct {
		name   string
		model  monetizationdomain.Model
		user   gatedomain.UserEntitlement
		usage  usagedomain.Usage
		want   gatedomain.Decision
		ledger bool
	}{
		{
			name:  "free",
			model: monetizationdomain.ModelFree,
			user:  member,
			want:  gatedomain.Allow(),
		},
		{
			name:   "usage_remaining",
			model:  monetizationdomain.ModelUsageBased,
			user:   member,
			usage:  usagedomain.Usage{Count: 4, Limit: 5, Remaining: 1},
			want:   gatedomain.Decision{Allowed: true, Usage: &usagedomain.Usage{Count: 4, Limit: 5, Remaining: 1}},
			ledger: true,
		},
		{
			name:   "usage_exhausted",
			model:  monetizationdomain.ModelUsageBased,
			user:   member,
			usage:  usagedomain.Usage{Count: 5, Limit: 5, Remaining: 0},
			want:   gatedomain.Decision{Reason: gatedomain.ReasonQuotaExhausted, UpsellAction: gatedomain.UpsellUnlimitedAccess, Usage: &usagedomain.Usage{Count: 5, Limit: 5, Remaining: 0}},
			ledger: true,
		},
		{
			name:  "subscription_missing",
			model: monetizationdomain.ModelSubscription,
			user:  member,
			want:  gatedomain.Block(gatedomain.ReasonSubscriptionRequired, gatedomain.UpsellUpgradeToPro),
		},
		{
			name:  "subscription_active",
			model: monetizationdomain.ModelSubscription,
			user:  subscriber,
			want:  gatedomain.Allow(),
		},
		{
			name:  "pay_per_feature_subscriber",
			model: monetizationdomain.ModelPayPerFeature,
			user:  subscriber,
			want:  gatedomain.Block(gatedomain.ReasonPurchaseRequired, gatedomain.UpsellOneTimeFee),
		},
		{
			name:  "pay_per_feature_purchased",
			model: monetizationdomain.ModelPayPerFeature,
			user:  buyer,
			want:  gatedomain.Allow(),
		},
		{
			name:  "unknown_model",
			model: monetizationdomain.Model("Lifetime"),
			user:  member,
			want:  gatedomain.Allow(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &ledgerStub{usage: tc.usage}
			got, err := newResolver(ledger).EvaluateAccess(context.Background(), cfg(tc.model), tc.user, studio)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 0, ledger.records, "evaluation must not record usage")
			if tc.ledger {
				assert.Equal(t, 1, ledger.gets)
			} else {
				assert.Equal(t, 0, ledger.gets)
			}
		})
	}
}

func TestEvaluateAccessPropagatesStorageErrors(t *testing.T) {
	ledger := &ledgerStub{err: usagedomain.ErrStorageUnavailable}
	user := gatedomain.UserEntitlement{ID: 1, Role: gatedomain.RoleUser}

	_, err := newResolver(ledger).EvaluateAccess(context.Background(), cfg(monetizationdomain.ModelUsageBased), user, studio)
	assert.ErrorIs(t, err, usagedomain.ErrStorageUnavailable)
}

func TestEvaluateAccessValidatesInput(t *testing.T) {
	r := newResolver(&ledgerStub{})
	ctx := context.Background()

	_, err := r.EvaluateAccess(ctx, cfg(monetizationdomain.ModelFree), gatedomain.UserEntitlement{ID: 1}, " ")
	assert.ErrorIs(t, err, usagedomain.ErrInvalidFeatureName)

	_, err = r.EvaluateAccess(ctx, cfg(monetizationdomain.ModelFree), gatedomain.UserEntitlement{ID: 0}, studio)
	assert.ErrorIs(t, err, usagedomain.ErrInvalidUserID)
}

func TestQuotaExhaustedAfterFiveRecords(t *testing.T) {
	ledger := newLedger(t)
	r := newResolver(ledger)
	ctx := context.Background()
	user := gatedomain.UserEntitlement{ID: 42, Role: gatedomain.RoleUser}

	for i := 0; i < 5; i++ {
		decision, err := r.EvaluateAccess(ctx, cfg(monetizationdomain.ModelUsageBased), user, studio)
		require.NoError(t, err)
		require.True(t, decision.Allowed, "record %d should be allowed", i)
		_, err = ledger.RecordUsage(ctx, user.ID, studio)
		require.NoError(t, err)
	}

	decision, err := r.EvaluateAccess(ctx, cfg(monetizationdomain.ModelUsageBased), user, studio)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, gatedomain.ReasonQuotaExhausted, decision.Reason)
	require.NotNil(t, decision.Usage)
	assert.Equal(t, int64(0), decision.Usage.Remaining)
}

func drawUser(t *rapid.T, role gatedomain.Role) gatedomain.UserEntitlement {
	return gatedomain.UserEntitlement{
		ID:           rapid.Int64Range(1, 1_000_000).Draw(t, "id"),
		Role:         role,
		IsSubscribed: rapid.Bool().Draw(t, "subscribed"),
	}
}

func drawFeature(t *rapid.T) string {
	return rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,40}`).Draw(t, "feature")
}

func TestAdminOverrideProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		model := rapid.SampledFrom(allModels).Draw(t, "model")
		user := drawUser(t, gatedomain.RoleAdmin)
		ledger := &ledgerStub{usage: usagedomain.Usage{Limit: 5}}

		decision, err := newResolver(ledger).EvaluateAccess(context.Background(), cfg(model), user, drawFeature(t))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if decision != gatedomain.Allow() {
			t.Fatalf("admin blocked under %s: %+v", model, decision)
		}
	})
}

func TestFreeModelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		role := rapid.SampledFrom([]gatedomain.Role{gatedomain.RoleAdmin, gatedomain.RoleUser}).Draw(t, "role")
		user := drawUser(t, role)

		decision, err := newResolver(&ledgerStub{}).EvaluateAccess(context.Background(), cfg(monetizationdomain.ModelFree), user, drawFeature(t))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("free model blocked: %+v", decision)
		}
	})
}

func TestSubscriptionGateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		user := drawUser(t, gatedomain.RoleUser)

		decision, err := newResolver(&ledgerStub{}).EvaluateAccess(context.Background(), cfg(monetizationdomain.ModelSubscription), user, drawFeature(t))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if user.IsSubscribed != decision.Allowed {
			t.Fatalf("subscribed=%v but allowed=%v", user.IsSubscribed, decision.Allowed)
		}
		if !decision.Allowed && decision.Reason != gatedomain.ReasonSubscriptionRequired {
			t.Fatalf("unexpected reason %s", decision.Reason)
		}
	})
}

func TestPayPerFeatureBlocksWithoutPurchaseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		user := drawUser(t, gatedomain.RoleUser)

		decision, err := newResolver(&ledgerStub{}).EvaluateAccess(context.Background(), cfg(monetizationdomain.ModelPayPerFeature), user, drawFeature(t))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if decision.Allowed || decision.Reason != gatedomain.ReasonPurchaseRequired {
			t.Fatalf("expected purchase required, got %+v", decision)
		}
	})
}

func TestBlockedErrorUnwraps(t *testing.T) {
	err := error(&gatedomain.BlockedError{Decision: gatedomain.Block(gatedomain.ReasonQuotaExhausted, gatedomain.UpsellUnlimitedAccess)})
	assert.True(t, errors.Is(err, gatedomain.ErrAccessBlocked))

	var blocked *gatedomain.BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, gatedomain.ReasonQuotaExhausted, blocked.Decision.Reason)
	assert.Equal(t, "come back next month or upgrade", blocked.Decision.Reason.Message())
}
