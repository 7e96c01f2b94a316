package main

import (
	"github.com/spf13/cobra"

	mcptransport "github.com/kailas-cloud/vpsearch/internal/transport/mcp"
	"github.com/kailas-cloud/vpsearch/internal/version"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server over stdio",
		Long: `Exposes the search_vp_roles tool to MCP clients over stdin/stdout.
Logs go to stderr so they never corrupt the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptionsFromFlags(cmd, true))
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcptransport.NewServer(a.search, &mcptransport.Config{
				Name:       "vpsearch",
				Version:    version.Version,
				FilterRole: a.cfg.Search.FilterRole,
				Logger:     a.logger,
			})
			return srv.Run(ctx)
		},
	}
}
