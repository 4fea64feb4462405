// Package domain defines access decisions for premium features.
package domain

import (
	"errors"
	"fmt"
	"strings"

	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
)

// Reason explains a blocked decision.
type Reason string

const (
	ReasonQuotaExhausted       Reason = "QuotaExhausted"
	ReasonSubscriptionRequired Reason = "SubscriptionRequired"
	ReasonPurchaseRequired     Reason = "PurchaseRequired"
)

const (
	UpsellUnlimitedAccess = "upgrade to Pro for unlimited access"
	UpsellUpgradeToPro    = "upgrade to Pro"
	UpsellOneTimeFee      = "unlock for a one-time fee"
)

// Message is the user-facing prompt shown for a blocked reason.
func (r Reason) Message() string {
	switch r {
	case ReasonQuotaExhausted:
		return "come back next month or upgrade"
	case ReasonSubscriptionRequired:
		return "upgrade to Pro"
	case ReasonPurchaseRequired:
		return "buy this feature"
	default:
		return ""
	}
}

// Decision is the outcome of evaluating access to a feature.
type Decision struct {
	Allowed      bool               `json:"allowed"`
	Reason       Reason             `json:"reason,omitempty"`
	UpsellAction string             `json:"upsell_action,omitempty"`
	Usage        *usagedomain.Usage `json:"usage,omitempty"`
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Block(reason Reason, upsell string) Decision {
	return Decision{Reason: reason, UpsellAction: upsell}
}

// Role of a user as seen by the gate.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

var ErrInvalidRole = errors.New("invalid_role")

func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, nil
	case "user", "":
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

// UserEntitlement is the slice of a user that gating looks at.
type UserEntitlement struct {
	ID                int64           `json:"id"`
	Role              Role            `json:"role"`
	IsSubscribed      bool            `json:"is_subscribed"`
	PurchasedFeatures map[string]bool `json:"purchased_features,omitempty"`
}

func (u UserEntitlement) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u UserEntitlement) HasPurchased(featureName string) bool {
	return u.PurchasedFeatures[strings.TrimSpace(featureName)]
}

var ErrAccessBlocked = errors.New("access_blocked")

// BlockedError carries the decision that stopped a guarded action.
type BlockedError struct {
	Decision Decision
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("access blocked: %s", e.Decision.Reason)
}

func (e *BlockedError) Unwrap() error {
	return ErrAccessBlocked
}
