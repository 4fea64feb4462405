package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*User, error)
	Upsert(ctx context.Context, db *gorm.DB, user *User) error
	CreatePurchase(ctx context.Context, db *gorm.DB, purchase *FeaturePurchase) error
	ListPurchasedFeatures(ctx context.Context, db *gorm.DB, userID int64) ([]string, error)
}
