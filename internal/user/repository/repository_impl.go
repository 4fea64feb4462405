package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/grantgate/internal/user/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "role", "is_subscribed", "updated_at"}),
		}).
		Create(user).Error
}

func (r *repo) CreatePurchase(ctx context.Context, db *gorm.DB, purchase *domain.FeaturePurchase) error {
	return db.WithContext(ctx).Create(purchase).Error
}

func (r *repo) ListPurchasedFeatures(ctx context.Context, db *gorm.DB, userID int64) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Model(&domain.FeaturePurchase{}).
		Where("user_id = ?", userID).
		Order("feature_name ASC").
		Pluck("feature_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
