package main

import (
	"github.com/spf13/cobra"

	"github.com/nettee/synphora/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server exposing the agent (SSE, AG-UI and WebSocket)
and the artifact API. The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(server.Config{
				Runner:  a.executor,
				Store:   a.store,
				Prompts: a.prompts,
				Sampler: a.tools,
				Origins: cfg.CORSOrigins,
				Logger:  a.log,
			})
			return srv.ListenAndServe(ctx, cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SYNPHORA_ADDR)")
	return cmd
}
