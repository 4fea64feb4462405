package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/grantgate/internal/observability/logger"
	"github.com/smallbiznis/grantgate/internal/observability/metrics"
	"github.com/smallbiznis/grantgate/internal/observability/metrics/pusher"
	"github.com/smallbiznis/grantgate/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		logger.New,
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
		metrics.New,
		tracing.NewProvider,
	),
	fx.Invoke(ensureTracingProvider),
	pusher.Module,
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}
