package usage

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/grantgate/internal/config"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"github.com/smallbiznis/grantgate/internal/usage/repository"
	"github.com/smallbiznis/grantgate/internal/usage/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("usage.service",
	fx.Provide(provideStore),
	fx.Provide(service.NewService),
)

type storeParams struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB              `optional:"true"`
	Redis redis.UniversalClient `optional:"true"`
}

func provideStore(p storeParams) (usagedomain.Store, error) {
	switch p.Cfg.Usage.Store {
	case config.StoreMemory:
		p.Log.Warn("usage counters are kept in memory and will not survive a restart")
		return repository.NewMemory(), nil
	case config.StoreRedis:
		if p.Redis == nil {
			return nil, errUnavailableBackend(config.StoreRedis)
		}
		return repository.NewRedis(p.Redis), nil
	case config.StoreGorm, "":
		if p.DB == nil {
			return nil, errUnavailableBackend(config.StoreGorm)
		}
		return repository.NewGorm(p.DB), nil
	default:
		return nil, errUnavailableBackend(p.Cfg.Usage.Store)
	}
}

func errUnavailableBackend(name string) error {
	return fmt.Errorf("usage store %q is not available", name)
}
