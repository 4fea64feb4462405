package user

import (
	"context"
	"fmt"

	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/smallbiznis/grantgate/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// BootstrapAdmin grants the Admin role to userID, creating the user when missing.
// Other fields of an existing user are left untouched.
func BootstrapAdmin(ctx context.Context, svc domain.Service, userID int64) (*domain.Response, error) {
	role := string(gatedomain.RoleAdmin)
	return svc.Upsert(ctx, domain.UpsertRequest{UserID: userID, Role: &role})
}

func registerBootstrapAdmin(lc fx.Lifecycle, cfg config.Config, svc domain.Service, log *zap.Logger) {
	if cfg.BootstrapAdminUserID <= 0 {
		return
	}
	log = log.Named("user.bootstrap")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			resp, err := BootstrapAdmin(ctx, svc, cfg.BootstrapAdminUserID)
			if err != nil {
				return fmt.Errorf("bootstrap admin %d: %w", cfg.BootstrapAdminUserID, err)
			}
			log.Info("bootstrap admin ensured", zap.Int64("user_id", resp.ID))
			return nil
		},
	})
}
