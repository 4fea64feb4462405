package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/grantgate/internal/cache"
	"github.com/smallbiznis/grantgate/internal/clock"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/smallbiznis/grantgate/internal/user/domain"
	"github.com/smallbiznis/grantgate/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const studio = "AI Grant Writing Studio"

func setupService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	return setupServiceWith(t, repository.Provide())
}

func setupServiceWith(t *testing.T, repo domain.Repository) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.FeaturePurchase{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repo,
		Cache: cache.NewEntitlementCache(time.Minute),
		Clock: clock.NewFakeClock(time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)),
	})
	return svc, db
}

func ptr[T any](v T) *T { return &v }

type failingRepo struct {
	domain.Repository
	err error
}

func (r failingRepo) FindByID(context.Context, *gorm.DB, int64) (*domain.User, error) {
	return nil, r.err
}

func (r failingRepo) ListPurchasedFeatures(context.Context, *gorm.DB, int64) ([]string, error) {
	return nil, r.err
}

func TestUpsertCreatesUserWithDefaults(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	resp, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 7, Email: ptr(" writer@example.org ")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "writer@example.org", resp.Email)
	assert.Equal(t, gatedomain.RoleUser, resp.Role)
	assert.False(t, resp.IsSubscribed)

	ent, err := svc.GetEntitlement(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, gatedomain.UserEntitlement{ID: 7, Role: gatedomain.RoleUser}, ent)
}

func TestUpsertUpdatesOnlyGivenFields(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 7, Email: ptr("a@example.org"), Role: ptr("admin")})
	require.NoError(t, err)

	resp, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 7, IsSubscribed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "a@example.org", resp.Email)
	assert.Equal(t, gatedomain.RoleAdmin, resp.Role)
	assert.True(t, resp.IsSubscribed)
}

func TestUpsertValidates(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	_, err = svc.Upsert(ctx, domain.UpsertRequest{UserID: 1, Role: ptr("owner")})
	assert.ErrorIs(t, err, gatedomain.ErrInvalidRole)
}

func TestGetEntitlementUnknownUser(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetEntitlement(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetEntitlement(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
}

func TestWritesInvalidateCachedEntitlement(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 3})
	require.NoError(t, err)

	ent, err := svc.GetEntitlement(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ent.IsSubscribed)

	_, err = svc.Upsert(ctx, domain.UpsertRequest{UserID: 3, IsSubscribed: ptr(true)})
	require.NoError(t, err)

	ent, err = svc.GetEntitlement(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ent.IsSubscribed)

	_, err = svc.RecordPurchase(ctx, domain.PurchaseRequest{UserID: 3, FeatureName: studio})
	require.NoError(t, err)

	ent, err = svc.GetEntitlement(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ent.HasPurchased(studio))
}

func TestGetEntitlementServesFromCache(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 5})
	require.NoError(t, err)
	_, err = svc.GetEntitlement(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", 5).Update("is_subscribed", true).Error)

	ent, err := svc.GetEntitlement(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ent.IsSubscribed, "direct writes are only seen after the ttl")
}

func TestRecordPurchase(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{UserID: 9})
	require.NoError(t, err)

	resp, err := svc.RecordPurchase(ctx, domain.PurchaseRequest{
		UserID:      9,
		FeatureName: "  " + studio + " ",
		Metadata:    map[string]any{"order_id": "ord_1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, studio, resp.FeatureName)
	assert.Equal(t, "ord_1", resp.Metadata["order_id"])
	assert.Equal(t, time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC), resp.PurchasedAt)

	_, err = svc.RecordPurchase(ctx, domain.PurchaseRequest{UserID: 9, FeatureName: studio})
	assert.ErrorIs(t, err, domain.ErrAlreadyPurchased)
}

func TestRecordPurchaseValidates(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, domain.PurchaseRequest{UserID: 0, FeatureName: studio})
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	_, err = svc.RecordPurchase(ctx, domain.PurchaseRequest{UserID: 1, FeatureName: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidFeatureName)

	_, err = svc.RecordPurchase(ctx, domain.PurchaseRequest{UserID: 1, FeatureName: studio})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	svc, _ := setupServiceWith(t, failingRepo{err: assert.AnError})
	ctx := context.Background()

	_, err := svc.GetEntitlement(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Upsert(ctx, domain.UpsertRequest{UserID: 1})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = svc.RecordPurchase(ctx, domain.PurchaseRequest{UserID: 1, FeatureName: studio})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestStoreCancellationIsNotWrapped(t *testing.T) {
	svc, _ := setupServiceWith(t, failingRepo{err: context.Canceled})

	_, err := svc.GetEntitlement(context.Background(), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
}
