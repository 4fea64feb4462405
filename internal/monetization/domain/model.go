// Package domain describes the deployment-wide monetization model that governs how
// premium features are gated.
package domain

import (
	"errors"
	"strings"
)

// Model is the active monetization strategy.
type Model string

const (
	ModelFree          Model = "Free"
	ModelSubscription  Model = "Subscription"
	ModelPayPerFeature Model = "PayPerFeature"
	ModelUsageBased    Model = "UsageBased"
)

var ErrUnknownModel = errors.New("unknown_monetization_model")

// Config is the monetization configuration passed into every gating decision.
type Config struct {
	MonetizationModel Model `json:"monetizationModel"`
}

// Default returns the configuration used when nothing has been configured.
func Default() Config {
	return Config{MonetizationModel: ModelFree}
}

// Known reports whether m is one of the four recognized models.
func (m Model) Known() bool {
	switch m {
	case ModelFree, ModelSubscription, ModelPayPerFeature, ModelUsageBased:
		return true
	default:
		return false
	}
}

// ParseModel normalizes a user supplied model name. Matching ignores case and
// the separators used by older clients ("pay_per_feature", "usage-based").
func ParseModel(raw string) (Model, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.NewReplacer("_", "", "-", "", " ", "").Replace(value)
	switch value {
	case "free":
		return ModelFree, nil
	case "subscription":
		return ModelSubscription, nil
	case "payperfeature":
		return ModelPayPerFeature, nil
	case "usagebased":
		return ModelUsageBased, nil
	default:
		return "", ErrUnknownModel
	}
}
