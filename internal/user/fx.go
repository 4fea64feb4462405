package user

import (
	"github.com/smallbiznis/grantgate/internal/cache"
	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/smallbiznis/grantgate/internal/user/domain"
	"github.com/smallbiznis/grantgate/internal/user/repository"
	"github.com/smallbiznis/grantgate/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) cache.EntitlementCache {
		return cache.NewEntitlementCache(cfg.EntitlementCacheTTL)
	}),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) gatedomain.EntitlementSource { return s }),
	fx.Invoke(registerBootstrapAdmin),
)
