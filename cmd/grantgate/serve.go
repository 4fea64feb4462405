package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/grantgate/internal/authorization"
	"github.com/smallbiznis/grantgate/internal/clock"
	"github.com/smallbiznis/grantgate/internal/config"
	"github.com/smallbiznis/grantgate/internal/gate"
	"github.com/smallbiznis/grantgate/internal/lock"
	"github.com/smallbiznis/grantgate/internal/migration"
	"github.com/smallbiznis/grantgate/internal/observability"
	"github.com/smallbiznis/grantgate/internal/observability/logger"
	"github.com/smallbiznis/grantgate/internal/redisclient"
	"github.com/smallbiznis/grantgate/internal/server"
	"github.com/smallbiznis/grantgate/internal/usage"
	"github.com/smallbiznis/grantgate/internal/user"
	"github.com/smallbiznis/grantgate/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	app := fx.New(
		fx.WithLogger(fxLogger),

		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redisclient.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		lock.Module,
		usage.Module,
		user.Module,
		gate.Module,
		authorization.Module,

		server.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(
				fx.WithLogger(fxLogger),
				config.Module,
				fx.Provide(logger.New),
				db.Module,
				migration.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			if err := app.Start(cmd.Context()); err != nil {
				return err
			}
			return app.Stop(context.Background())
		},
	}
}

func fxLogger(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
