package domain

import (
	"context"
	"errors"
)

// Service is the usage ledger.
type Service interface {
	// GetUsage returns the quota view, resetting and persisting a stale counter first.
	GetUsage(ctx context.Context, userID int64, featureName string) (Usage, error)
	// RecordUsage adds one consumption. It never fails for being over quota.
	RecordUsage(ctx context.Context, userID int64, featureName string) (Usage, error)
	ListUsage(ctx context.Context, userID int64) ([]FeatureUsage, error)
	Limit() int64
}

// Store persists counters. Implementations report a missing counter with
// found=false, never with an error.
type Store interface {
	Get(ctx context.Context, key CounterKey) (counter UsageCounter, found bool, err error)
	Set(ctx context.Context, counter UsageCounter) error
	ListByUser(ctx context.Context, userID int64) ([]UsageCounter, error)
}

// KeyLocker serializes read-modify-write cycles on a single counter.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var (
	ErrInvalidUserID      = errors.New("invalid_user_id")
	ErrInvalidFeatureName = errors.New("invalid_feature_name")
	ErrStorageUnavailable = errors.New("storage_unavailable")
)
