package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/grantgate/internal/authorization"
	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	obslogger "github.com/smallbiznis/grantgate/internal/observability/logger"
	obstracing "github.com/smallbiznis/grantgate/internal/observability/tracing"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	userdomain "github.com/smallbiznis/grantgate/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           cfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// MonetizationStore reads and replaces the active monetization config.
type MonetizationStore interface {
	gatedomain.ConfigSource
	SetModel(ctx context.Context, model monetizationdomain.Model) error
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	usagesvc     usagedomain.Service
	guard        gatedomain.Guard
	usersvc      userdomain.Service
	monetization MonetizationStore
	authzSvc     authorization.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Usagesvc     usagedomain.Service
	Guard        gatedomain.Guard
	Usersvc      userdomain.Service
	Monetization *config.MonetizationHolder
	AuthzSvc     authorization.Service
}

func NewServer(p ServerParams) *Server {
	return newServer(p.Gin, p.Cfg, p.Log, p.Usagesvc, p.Guard, p.Usersvc, p.Monetization, p.AuthzSvc)
}

func newServer(
	engine *gin.Engine,
	cfg config.Config,
	log *zap.Logger,
	usagesvc usagedomain.Service,
	guard gatedomain.Guard,
	usersvc userdomain.Service,
	monetization MonetizationStore,
	authzSvc authorization.Service,
) *Server {
	svc := &Server{
		engine:       engine,
		cfg:          cfg,
		log:          log.Named("http.server"),
		usagesvc:     usagesvc,
		guard:        guard,
		usersvc:      usersvc,
		monetization: monetization,
		authzSvc:     authzSvc,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/config", s.GetMonetizationConfig)

	api.GET("/usage/:user_id", s.ListUsage)
	api.GET("/usage/:user_id/:feature", s.GetUsage)
	api.POST("/usage/:user_id/:feature", s.RecordUsage)

	api.POST("/access/:user_id/:feature", s.EvaluateAccess)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.PUT("/config",
		s.authorizeAction(authorization.ObjectMonetization, authorization.ActionMonetizationWrite),
		s.UpdateMonetizationConfig,
	)
	admin.PUT("/users/:user_id",
		s.authorizeAction(authorization.ObjectUser, authorization.ActionUserWrite),
		s.UpsertUser,
	)
	admin.POST("/users/:user_id/purchases",
		s.authorizeAction(authorization.ObjectPurchase, authorization.ActionPurchaseWrite),
		s.RecordPurchase,
	)
}
