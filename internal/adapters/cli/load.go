package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the marketplace snapshot into local storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, OpenRequest{}, func(b *Backend) error {
				if b.Catalog == nil {
					return errors.New("catalog loader not configured")
				}
				if err := b.Catalog.Fetch(commandContext(cmd)); err != nil {
					return fmt.Errorf("fetch snapshot: %w", err)
				}
				printf(cmd.OutOrStdout(), "Snapshot cached.\n")
				return nil
			})
		},
	}
}

func newLoadCatalogCommand(opts *rootOptions) *cobra.Command {
	var fetchFirst bool

	cmd := &cobra.Command{
		Use:   "load-catalog",
		Short: "Upsert catalog entries from the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, OpenRequest{}, func(b *Backend) error {
				if b.Catalog == nil {
					return errors.New("catalog loader not configured")
				}
				ctx := commandContext(cmd)
				if fetchFirst {
					if err := b.Catalog.Fetch(ctx); err != nil {
						return fmt.Errorf("fetch snapshot: %w", err)
					}
				}
				written, err := b.Catalog.LoadSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("load catalog: %w", err)
				}
				printf(cmd.OutOrStdout(), "Loaded %d catalog entries.\n", written)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fetchFirst, "fetch", false, "download a fresh snapshot before loading")
	return cmd
}

func newLoadAgenciesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load-agencies <workbook.xlsx>",
		Short: "Replace agency usage records from the provisioning workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer file.Close()

			return opts.withBackend(cmd, OpenRequest{}, func(b *Backend) error {
				if b.Agencies == nil {
					return errors.New("agency loader not configured")
				}
				written, err := b.Agencies.Load(commandContext(cmd), file)
				if err != nil {
					return fmt.Errorf("load agencies: %w", err)
				}
				printf(cmd.OutOrStdout(), "Loaded %d agency records.\n", written)
				return nil
			})
		},
	}
}
