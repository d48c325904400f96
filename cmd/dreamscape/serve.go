package main

import (
	"github.com/jason-allen-oneal/dreamscape-ai/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				srv := server.New(a.ds, func(o *server.Options) {
					o.RecordsPath = a.cfg.World.RecordsPath
					o.StaticDir = a.cfg.World.PublicRoot
					o.ReadTimeout = a.cfg.Server.ReadTimeout
					o.WriteTimeout = a.cfg.Server.WriteTimeout
					o.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
					o.Logger = a.logger
				})
				return srv.ListenAndServe(cmd.Context(), addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
