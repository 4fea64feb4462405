package service

import (
	"context"
	"strings"

	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	obsmetrics "github.com/smallbiznis/grantgate/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ResolverParam struct {
	fx.In

	Log     *zap.Logger
	Ledger  gatedomain.Ledger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Resolver struct {
	log     *zap.Logger
	ledger  gatedomain.Ledger
	metrics *obsmetrics.Metrics
}

func NewResolver(p ResolverParam) gatedomain.Resolver {
	return &Resolver{
		log:     p.Log.Named("gate.resolver"),
		ledger:  p.Ledger,
		metrics: p.Metrics,
	}
}

// EvaluateAccess applies, in order: admin override, free model, usage quota,
// subscription, per-feature purchase, and finally allows any unrecognized model.
func (r *Resolver) EvaluateAccess(
	ctx context.Context,
	cfg monetizationdomain.Config,
	user gatedomain.UserEntitlement,
	featureName string,
) (gatedomain.Decision, error) {
	featureName = strings.TrimSpace(featureName)
	if featureName == "" {
		return gatedomain.Decision{}, usagedomain.ErrInvalidFeatureName
	}
	if user.ID <= 0 {
		return gatedomain.Decision{}, usagedomain.ErrInvalidUserID
	}

	model := cfg.MonetizationModel
	decision, err := r.evaluate(ctx, model, user, featureName)
	if err != nil {
		r.metrics.ObserveDecision(string(model), obsmetrics.OutcomeError, "")
		return gatedomain.Decision{}, err
	}

	if decision.Allowed {
		r.metrics.ObserveDecision(string(model), obsmetrics.OutcomeAllowed, "")
	} else {
		r.metrics.ObserveDecision(string(model), obsmetrics.OutcomeBlocked, string(decision.Reason))
	}
	return decision, nil
}

func (r *Resolver) evaluate(
	ctx context.Context,
	model monetizationdomain.Model,
	user gatedomain.UserEntitlement,
	featureName string,
) (gatedomain.Decision, error) {
	if user.IsAdmin() {
		return gatedomain.Allow(), nil
	}

	switch model {
	case monetizationdomain.ModelFree:
		return gatedomain.Allow(), nil

	case monetizationdomain.ModelUsageBased:
		usage, err := r.ledger.GetUsage(ctx, user.ID, featureName)
		if err != nil {
			return gatedomain.Decision{}, err
		}
		decision := gatedomain.Block(gatedomain.ReasonQuotaExhausted, gatedomain.UpsellUnlimitedAccess)
		if usage.Remaining > 0 {
			decision = gatedomain.Allow()
		}
		decision.Usage = &usage
		return decision, nil

	case monetizationdomain.ModelSubscription:
		if user.IsSubscribed {
			return gatedomain.Allow(), nil
		}
		return gatedomain.Block(gatedomain.ReasonSubscriptionRequired, gatedomain.UpsellUpgradeToPro), nil

	case monetizationdomain.ModelPayPerFeature:
		if user.HasPurchased(featureName) {
			return gatedomain.Allow(), nil
		}
		return gatedomain.Block(gatedomain.ReasonPurchaseRequired, gatedomain.UpsellOneTimeFee), nil

	default:
		// An unrecognized model must not hide every premium feature.
		r.log.Warn("unknown monetization model, allowing access",
			zap.String("model", string(model)),
			zap.String("feature_name", featureName),
			zap.Int64("user_id", user.ID),
		)
		return gatedomain.Allow(), nil
	}
}
