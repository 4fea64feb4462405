package redisclient

import (
	"testing"

	"github.com/smallbiznis/grantgate/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewSkipsClientWithoutRedisBackends(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	client := New(lc, config.Config{Usage: config.UsageConfig{Store: config.StoreGorm, LockBackend: config.LockLocal}}, zap.NewNop())
	assert.Nil(t, client)
}

func TestNewBuildsClientForRedisLocks(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{
		Usage: config.UsageConfig{Store: config.StoreGorm, LockBackend: config.LockRedis},
		Redis: config.RedisConfig{Addr: "127.0.0.1:6379"},
	}
	client := New(lc, cfg, zap.NewNop())
	assert.NotNil(t, client)
	assert.NoError(t, client.Close())
}
