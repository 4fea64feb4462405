package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"gorm.io/datatypes"
)

// User is the gating view of an application account. Identity and sessions live
// elsewhere; only the fields gating needs are kept here.
type User struct {
	ID           int64           `gorm:"primaryKey;autoIncrement:false"`
	Email        string          `gorm:"type:text"`
	Role         gatedomain.Role `gorm:"type:varchar(32);not null"`
	IsSubscribed bool            `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// FeaturePurchase unlocks one feature for one user under the pay-per-feature model.
type FeaturePurchase struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	UserID      int64             `gorm:"not null;uniqueIndex:ux_feature_purchases_user_feature,priority:1"`
	FeatureName string            `gorm:"type:varchar(255);not null;uniqueIndex:ux_feature_purchases_user_feature,priority:2"`
	Metadata    datatypes.JSONMap `gorm:"type:json"`
	PurchasedAt time.Time         `gorm:"not null"`
}

func (FeaturePurchase) TableName() string { return "feature_purchases" }
