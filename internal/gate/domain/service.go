package domain

import (
	"context"

	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
)

// Resolver decides access. It never records usage.
type Resolver interface {
	EvaluateAccess(ctx context.Context, cfg monetizationdomain.Config, user UserEntitlement, featureName string) (Decision, error)
}

// EntitlementSource loads the entitlement of a user.
type EntitlementSource interface {
	GetEntitlement(ctx context.Context, userID int64) (UserEntitlement, error)
}

// ConfigSource returns the monetization config currently in force.
type ConfigSource interface {
	Get() monetizationdomain.Config
}

// Action is the metered work performed after access is granted.
type Action func(ctx context.Context) error

// Guard evaluates access and, when allowed, charges quota immediately before
// running the action.
type Guard interface {
	Run(ctx context.Context, userID int64, featureName string, action Action) (Decision, error)
	Check(ctx context.Context, userID int64, featureName string) (Decision, error)
}

// Ledger is the part of the usage ledger the gate depends on.
type Ledger interface {
	GetUsage(ctx context.Context, userID int64, featureName string) (usagedomain.Usage, error)
	RecordUsage(ctx context.Context, userID int64, featureName string) (usagedomain.Usage, error)
}
