package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/seed"
)

type SeedOptions struct {
	*RootOptions
	Index bool
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample catalog into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			opts.apply(cmd, &cfg)
			return runSeed(cmd.Context(), cfg, opts.Index, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Index, "index", false, "also index the catalog into Elasticsearch (ES_URL)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, index bool, cmd *cobra.Command) error {
	log := logging.New(cfg.LogLevel)
	ctx = logging.IntoContext(ctx, log)

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	defer closeStore()

	var idx seed.Indexer
	if index {
		if cfg.ESURL == "" {
			return fmt.Errorf("--index needs ES_URL")
		}
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			return err
		}
		pi := search.NewProductIndex(es, cfg.ESIndex)
		if err := pi.EnsureIndex(ctx); err != nil {
			return err
		}
		idx = pi
	}

	n, err := seed.Run(ctx, st, idx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d products\n", n)
	return nil
}
