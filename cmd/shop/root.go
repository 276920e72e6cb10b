package main

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	LogLevel    string
	StoreDriver string
}

// apply overrides environment configuration with explicitly set flags.
func (o *RootOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreDriver = o.StoreDriver
	}
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "shop",
		Short:         "Storefront backend: accounts, catalog and carts over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.StoreDriver, "store", "sqlite", "store backend (postgres|sqlite|mongo)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
