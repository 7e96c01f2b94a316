package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vpsearch/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vpsearch",
		Short: "Semantic search for VP roles by department",
		Long: `vpsearch embeds a department name, runs a filtered nearest-neighbor
query against the people index and returns the closest VP-level roles.

It runs as an HTTP API, an MCP stdio server or a one-shot CLI.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("env", "", "Environment name (default: $ENV or local)")
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (overrides --env lookup)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newSearchCmd(),
		newIngestCmd(),
		newIndexCmd(),
		newMCPCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout(), jsonFlag(cmd))
		},
	}
}

func printVersion(w io.Writer, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(map[string]string{
			"version": version.Version,
			"commit":  version.Commit,
			"date":    version.Date,
		})
	}
	_, err := fmt.Fprintln(w, version.String())
	return err
}

func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// appOptionsFromFlags reads the global flags shared by every command that needs the pipeline.
func appOptionsFromFlags(cmd *cobra.Command, needsEmbedder bool) appOptions {
	env, _ := cmd.Flags().GetString("env")
	path, _ := cmd.Flags().GetString("config")
	return appOptions{env: env, configPath: path, needsEmbedder: needsEmbedder}
}
