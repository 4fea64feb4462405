package pusher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/grantgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(runLoop),
)

func runLoop(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, pusher Pusher) {
	if pusher == nil {
		return
	}
	log = log.Named("metrics.push")

	interval := cfg.MetricsPush.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						pushOnce(ctx, log, pusher)
					}
				}
			}()
			log.Info("metrics push started", zap.Duration("interval", interval))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			// Flush the final counters on shutdown.
			pushOnce(stopCtx, log, pusher)
			return nil
		},
	})
}

func pushOnce(ctx context.Context, log *zap.Logger, pusher Pusher) {
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := pusher.Push(pushCtx, prometheus.DefaultGatherer); err != nil {
		log.Warn("metrics push failed", zap.Error(err))
	}
}
