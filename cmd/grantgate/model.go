package main

import (
	"fmt"

	"github.com/smallbiznis/grantgate/internal/config"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newModelCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "model",
		Short: "Show or change the active monetization model",
	}
	cmd.PersistentFlags().StringVar(&dir, "config-dir", "", "directory holding monetization.yml (default: standard search paths)")

	open := func() (*config.MonetizationHolder, error) {
		if dir != "" {
			return config.NewMonetizationHolderIn(zap.NewNop(), dir)
		}
		return config.NewMonetizationHolder(zap.NewNop())
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the active monetization model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			holder, err := open()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), holder.Get().MonetizationModel)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <Free|Subscription|PayPerFeature|UsageBased>",
		Short: "Persist a new monetization model to monetization.yml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := monetizationdomain.ParseModel(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			holder, err := open()
			if err != nil {
				return err
			}
			if holder.ConfigFile() == "" {
				return fmt.Errorf("no monetization.yml found to update")
			}
			if err := holder.SetModel(cmd.Context(), model); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "monetization model set to %s in %s\n", model, holder.ConfigFile())
			return nil
		},
	})

	return cmd
}
