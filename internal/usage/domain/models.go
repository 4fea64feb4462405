// Package domain contains the usage ledger model: one monthly counter per user and
// feature.
package domain

import "time"

// UsageCounter is one feature's consumption by one user within the current window.
type UsageCounter struct {
	UserID      int64     `gorm:"primaryKey;autoIncrement:false"`
	FeatureName string    `gorm:"primaryKey;type:varchar(255)"`
	Count       int64     `gorm:"not null;default:0"`
	ResetAt     time.Time `gorm:"not null"` // exclusive end of the window
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageCounter) TableName() string { return "usage_counters" }

func (c UsageCounter) Key() CounterKey {
	return CounterKey{UserID: c.UserID, FeatureName: c.FeatureName}
}

// Stale reports whether the window has elapsed at now.
func (c UsageCounter) Stale(now time.Time) bool {
	return !now.Before(c.ResetAt)
}

// CounterKey identifies a counter.
type CounterKey struct {
	UserID      int64
	FeatureName string
}

// Usage is the quota view of a counter.
type Usage struct {
	Count     int64     `json:"count"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

type FeatureUsage struct {
	FeatureName string `json:"feature_name"`
	Usage
}

// NewUsage computes the quota view for count under limit.
func NewUsage(count, limit int64, resetAt time.Time) Usage {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
