package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grantgate",
		Short: "Feature gating and usage metering for premium features",
		Long: `grantgate decides whether a user may invoke a premium feature under the
configured monetization model and meters feature usage against a monthly quota.

Run without a subcommand to start the HTTP service.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newModelCommand())
	rootCmd.AddCommand(newUserCommand())

	return rootCmd
}
