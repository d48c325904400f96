package main

import (
	"errors"
	"io/fs"

	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/dreams"
	"github.com/spf13/cobra"
)

func newWorldCmd(opts *rootOptions) *cobra.Command {
	var (
		records string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "world",
		Short: "Synthesize the collective dream world (cached unless stale)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if records == "" {
					records = a.cfg.World.RecordsPath
				}
				recs, err := dreams.LoadRecords(records)
				if err != nil && !errors.Is(err, fs.ErrNotExist) {
					return err
				}

				m, generated, err := a.ds.WorldFromRecords(cmd.Context(), recs, force)
				if m == nil {
					return err
				}
				if err != nil {
					a.logger.Error("world.persist.error", "error", err.Error())
				}

				return printJSON(cmd.OutOrStdout(), struct {
					*artifact.Manifest
					Generated bool `json:"generated"`
				}{m, generated})
			})
		},
	}
	cmd.Flags().StringVar(&records, "records", "", "dream record file (overrides config)")
	cmd.Flags().BoolVar(&force, "force", false, "regenerate even when the cache is fresh")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cached generation and its staleness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				st, err := a.ds.Status(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}
}
