package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/grantgate/internal/cache"
	"github.com/smallbiznis/grantgate/internal/clock"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/smallbiznis/grantgate/internal/user/domain"
	"github.com/smallbiznis/grantgate/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Cache cache.EntitlementCache `optional:"true"`
	Clock clock.Clock            `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	cache cache.EntitlementCache
	clock clock.Clock
}

func New(p Params) domain.Service {
	c := p.Cache
	if c == nil {
		c = cache.NewEntitlementCache(0)
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  p.Repo,
		cache: c,
		clock: clk,
	}
}

// GetEntitlement loads the role, subscription flag and purchased features the
// gate needs for one user.
func (s *Service) GetEntitlement(ctx context.Context, userID int64) (gatedomain.UserEntitlement, error) {
	if userID <= 0 {
		return gatedomain.UserEntitlement{}, domain.ErrInvalidUserID
	}
	if cached, ok := s.cache.Get(userID); ok {
		return cached, nil
	}

	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return gatedomain.UserEntitlement{}, s.storageError("find_user", err)
	}
	if user == nil {
		return gatedomain.UserEntitlement{}, domain.ErrNotFound
	}

	features, err := s.repo.ListPurchasedFeatures(ctx, s.db, userID)
	if err != nil {
		return gatedomain.UserEntitlement{}, s.storageError("list_purchases", err)
	}

	entitlement := gatedomain.UserEntitlement{
		ID:           user.ID,
		Role:         user.Role,
		IsSubscribed: user.IsSubscribed,
	}
	if len(features) > 0 {
		entitlement.PurchasedFeatures = make(map[string]bool, len(features))
		for _, name := range features {
			entitlement.PurchasedFeatures[name] = true
		}
	}

	s.cache.Set(entitlement)
	return entitlement, nil
}

// Upsert creates the user when missing and applies only the fields present in
// the request otherwise.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Response, error) {
	if req.UserID <= 0 {
		return nil, domain.ErrInvalidUserID
	}

	var role *gatedomain.Role
	if req.Role != nil {
		parsed, err := gatedomain.ParseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		role = &parsed
	}

	var saved domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		user := domain.User{
			ID:        req.UserID,
			Role:      gatedomain.RoleUser,
			CreatedAt: now,
		}
		if existing != nil {
			user = *existing
		}
		if req.Email != nil {
			user.Email = strings.TrimSpace(*req.Email)
		}
		if role != nil {
			user.Role = *role
		}
		if req.IsSubscribed != nil {
			user.IsSubscribed = *req.IsSubscribed
		}
		user.UpdatedAt = now

		if err := s.repo.Upsert(ctx, tx, &user); err != nil {
			return err
		}
		saved = user
		return nil
	})
	if err != nil {
		return nil, s.storageError("upsert_user", err)
	}

	s.cache.Invalidate(req.UserID)
	s.log.Info("user upserted",
		zap.Int64("user_id", saved.ID),
		zap.String("role", string(saved.Role)),
		zap.Bool("is_subscribed", saved.IsSubscribed),
	)
	return toResponse(saved), nil
}

// RecordPurchase unlocks a feature for a user under the pay-per-feature model.
func (s *Service) RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (*domain.PurchaseResponse, error) {
	if req.UserID <= 0 {
		return nil, domain.ErrInvalidUserID
	}
	feature := strings.TrimSpace(req.FeatureName)
	if feature == "" {
		return nil, domain.ErrInvalidFeatureName
	}

	user, err := s.repo.FindByID(ctx, s.db, req.UserID)
	if err != nil {
		return nil, s.storageError("find_user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	purchase := domain.FeaturePurchase{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		FeatureName: feature,
		Metadata:    metadata,
		PurchasedAt: s.clock.Now(),
	}
	if err := s.repo.CreatePurchase(ctx, s.db, &purchase); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyPurchased
		}
		return nil, s.storageError("create_purchase", err)
	}

	s.cache.Invalidate(req.UserID)
	s.log.Info("feature purchased",
		zap.Int64("user_id", req.UserID),
		zap.String("feature_name", feature),
		zap.String("purchase_id", purchase.ID.String()),
	)

	return &domain.PurchaseResponse{
		ID:          purchase.ID.String(),
		UserID:      purchase.UserID,
		FeatureName: purchase.FeatureName,
		Metadata:    map[string]any(purchase.Metadata),
		PurchasedAt: purchase.PurchasedAt,
	}, nil
}

// storageError keeps cancellations as they are and reports everything else as
// an unavailable store.
func (s *Service) storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.log.Error("user store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}

func toResponse(u domain.User) *domain.Response {
	return &domain.Response{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		IsSubscribed: u.IsSubscribed,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
