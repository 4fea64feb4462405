package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/grantgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestProviderWithoutExporterStillTraces(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	tp, err := NewProvider(lc, config.Config{AppName: "grantgate", OtelSamplingRatio: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())

	var spanCtx trace.SpanContext
	r.GET("/api/config", func(c *gin.Context) {
		spanCtx = trace.SpanFromContext(c.Request.Context()).SpanContext()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, spanCtx.IsValid())
}
