package lock

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/grantgate/internal/config"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("usage.lock",
	fx.Provide(NewKeyLocker),
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Redis redis.UniversalClient `optional:"true"`
}

// NewKeyLocker picks the locker configured by USAGE_LOCK_BACKEND.
func NewKeyLocker(p Params) usagedomain.KeyLocker {
	if p.Cfg.Usage.LockBackend == config.LockRedis {
		if p.Redis != nil {
			return NewRedisLocker(p.Redis, p.Cfg.Usage.LockTTL)
		}
		p.Log.Warn("redis lock backend requested without a redis client, using local locks")
	}
	return NewLocalLocker()
}
