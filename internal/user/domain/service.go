package domain

import (
	"context"
	"errors"
	"time"

	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
)

type Service interface {
	GetEntitlement(ctx context.Context, userID int64) (gatedomain.UserEntitlement, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Response, error)
	RecordPurchase(ctx context.Context, req PurchaseRequest) (*PurchaseResponse, error)
}

type UpsertRequest struct {
	UserID       int64   `json:"user_id"`
	Email        *string `json:"email,omitempty"`
	Role         *string `json:"role,omitempty"`
	IsSubscribed *bool   `json:"is_subscribed,omitempty"`
}

type PurchaseRequest struct {
	UserID      int64          `json:"user_id"`
	FeatureName string         `json:"feature_name"`
	Metadata    map[string]any `json:"metadata"`
}

type Response struct {
	ID           int64           `json:"id"`
	Email        string          `json:"email,omitempty"`
	Role         gatedomain.Role `json:"role"`
	IsSubscribed bool            `json:"is_subscribed"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type PurchaseResponse struct {
	ID          string         `json:"id"`
	UserID      int64          `json:"user_id"`
	FeatureName string         `json:"feature_name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	PurchasedAt time.Time      `json:"purchased_at"`
}

var (
	ErrInvalidUserID      = errors.New("invalid_user_id")
	ErrInvalidFeatureName = errors.New("invalid_feature_name")
	ErrNotFound           = errors.New("not_found")
	ErrAlreadyPurchased   = errors.New("already_purchased")
	ErrStorageUnavailable = errors.New("storage_unavailable")
)
