package main

import (
	"github.com/spf13/cobra"

	"github.com/nettee/synphora/mcp"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the article tools over MCP (stdio)",
		Long: `Serve write_comment, generate_title and generate_introduction as MCP
tools over stdin/stdout, for MCP clients that launch synphora as a
subprocess. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.ServeStdio(a.registry, mcp.WithLogger(a.log))
		},
	}
}
