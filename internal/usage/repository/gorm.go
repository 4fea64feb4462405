package repository

import (
	"context"
	"errors"

	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGorm returns a store backed by the usage_counters table.
func NewGorm(db *gorm.DB) usagedomain.Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, key usagedomain.CounterKey) (usagedomain.UsageCounter, bool, error) {
	var row usagedomain.UsageCounter
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND feature_name = ?", key.UserID, key.FeatureName).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usagedomain.UsageCounter{}, false, nil
		}
		return usagedomain.UsageCounter{}, false, err
	}
	row.ResetAt = row.ResetAt.UTC()
	return row, true, nil
}

func (s *gormStore) Set(ctx context.Context, counter usagedomain.UsageCounter) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "feature_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"count", "reset_at", "updated_at"}),
		}).
		Create(&counter).Error
}

func (s *gormStore) ListByUser(ctx context.Context, userID int64) ([]usagedomain.UsageCounter, error) {
	var rows []usagedomain.UsageCounter
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("feature_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ResetAt = rows[i].ResetAt.UTC()
	}
	return rows, nil
}
