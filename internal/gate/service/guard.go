package service

import (
	"context"

	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type GuardParam struct {
	fx.In

	Log      *zap.Logger
	Resolver gatedomain.Resolver
	Ledger   gatedomain.Ledger
	Users    gatedomain.EntitlementSource
	Config   gatedomain.ConfigSource
}

type Guard struct {
	log      *zap.Logger
	resolver gatedomain.Resolver
	ledger   gatedomain.Ledger
	users    gatedomain.EntitlementSource
	config   gatedomain.ConfigSource
}

func NewGuard(p GuardParam) gatedomain.Guard {
	return &Guard{
		log:      p.Log.Named("gate.guard"),
		resolver: p.Resolver,
		ledger:   p.Ledger,
		users:    p.Users,
		config:   p.Config,
	}
}

// Check evaluates access for the user under the config currently in force.
func (g *Guard) Check(ctx context.Context, userID int64, featureName string) (gatedomain.Decision, error) {
	decision, _, _, err := g.check(ctx, userID, featureName)
	return decision, err
}

// Run charges one unit of quota and then invokes action, but only when access
// is allowed. Usage is recorded for the usage based model and never for admins.
// A blocked decision is returned together with a *gatedomain.BlockedError.
func (g *Guard) Run(ctx context.Context, userID int64, featureName string, action gatedomain.Action) (gatedomain.Decision, error) {
	decision, cfg, user, err := g.check(ctx, userID, featureName)
	if err != nil {
		return gatedomain.Decision{}, err
	}
	if !decision.Allowed {
		return decision, &gatedomain.BlockedError{Decision: decision}
	}

	if cfg.MonetizationModel == monetizationdomain.ModelUsageBased && !user.IsAdmin() {
		usage, err := g.ledger.RecordUsage(ctx, user.ID, featureName)
		if err != nil {
			return gatedomain.Decision{}, err
		}
		decision.Usage = &usage
	}

	if action == nil {
		return decision, nil
	}
	if err := action(ctx); err != nil {
		g.log.Warn("guarded action failed",
			zap.Int64("user_id", userID),
			zap.String("feature_name", featureName),
			zap.Error(err),
		)
		return decision, err
	}
	return decision, nil
}

func (g *Guard) check(ctx context.Context, userID int64, featureName string) (gatedomain.Decision, monetizationdomain.Config, gatedomain.UserEntitlement, error) {
	user, err := g.users.GetEntitlement(ctx, userID)
	if err != nil {
		return gatedomain.Decision{}, monetizationdomain.Config{}, gatedomain.UserEntitlement{}, err
	}
	cfg := g.config.Get()
	decision, err := g.resolver.EvaluateAccess(ctx, cfg, user, featureName)
	if err != nil {
		return gatedomain.Decision{}, cfg, user, err
	}
	return decision, cfg, user, nil
}
