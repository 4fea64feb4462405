package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/grantgate/internal/clock"
	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/smallbiznis/grantgate/internal/migration"
	"github.com/smallbiznis/grantgate/internal/observability/logger"
	"github.com/smallbiznis/grantgate/internal/user"
	userdomain "github.com/smallbiznis/grantgate/internal/user/domain"
	"github.com/smallbiznis/grantgate/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user entitlements",
	}
	cmd.AddCommand(newUserUpsertCommand())
	return cmd
}

func newUserUpsertCommand() *cobra.Command {
	var (
		role       string
		email      string
		subscribed bool
	)

	cmd := &cobra.Command{
		Use:   "upsert <user-id>",
		Short: "Create or update a user; only the given flags are changed",
		Example: `  grantgate user upsert 1 --role admin
  grantgate user upsert 42 --subscribed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildUpsertRequest(cmd, args[0], role, email, subscribed)
			if err != nil {
				return err
			}

			var svc userdomain.Service
			app := fx.New(
				fx.WithLogger(fxLogger),
				config.Module,
				fx.Provide(logger.New),
				fx.Provide(RegisterSnowflake),
				db.Module,
				clock.Module,
				migration.Module,
				user.Module,
				fx.Populate(&svc),
			)
			if err := app.Err(); err != nil {
				return err
			}
			if err := app.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = app.Stop(context.Background()) }()

			resp, err := svc.Upsert(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: role=%s subscribed=%t\n", resp.ID, resp.Role, resp.IsSubscribed)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Admin or User")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "active Pro subscription")

	return cmd
}

// buildUpsertRequest validates arguments before any database is opened.
func buildUpsertRequest(cmd *cobra.Command, rawID, role, email string, subscribed bool) (userdomain.UpsertRequest, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return userdomain.UpsertRequest{}, fmt.Errorf("%w: %q", userdomain.ErrInvalidUserID, rawID)
	}

	req := userdomain.UpsertRequest{UserID: id}
	if cmd.Flags().Changed("role") {
		if _, err := gatedomain.ParseRole(role); err != nil {
			return userdomain.UpsertRequest{}, fmt.Errorf("%w: %q", err, role)
		}
		req.Role = &role
	}
	if cmd.Flags().Changed("email") {
		req.Email = &email
	}
	if cmd.Flags().Changed("subscribed") {
		req.IsSubscribed = &subscribed
	}
	return req, nil
}
