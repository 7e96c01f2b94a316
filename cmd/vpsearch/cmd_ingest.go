package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain/batch"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.jsonl|->",
		Short: "Load person records from a JSONL file",
		Long: `Reads one person record per line:

  {"name":"Alice","role":"VP of Sales","normalizedRole":"VP","roleVector":[...]}

Lines without "roleVector" are embedded with the configured provider.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := appOptionsFromFlags(cmd, true)
			opts.optionalEmbedder = true
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = a.cfg.Search.IngestWorkers
			}

			results, err := a.ingest.IngestJSONL(ctx, r, workers)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			for _, res := range results {
				if res.Err() != nil {
					a.logger.Warn("line rejected", zap.Int("line", res.Line()), zap.Error(res.Err()))
				}
			}
			return writeIngestSummary(cmd.OutOrStdout(), results, jsonFlag(cmd))
		},
	}
	cmd.Flags().Int("workers", 0, "Concurrent writers (default from config, then 4)")
	return cmd
}

func writeIngestSummary(w io.Writer, results []batch.Result, jsonOut bool) error {
	sum := batch.Summarize(results)
	if jsonOut {
		type lineErr struct {
			Line  int    `json:"line"`
			Error string `json:"error"`
		}
		errs := make([]lineErr, 0, sum.Failed)
		for _, r := range results {
			if r.Err() != nil {
				errs = append(errs, lineErr{Line: r.Line(), Error: r.Err().Error()})
			}
		}
		return json.NewEncoder(w).Encode(map[string]any{
			"ok":     sum.OK,
			"failed": sum.Failed,
			"errors": errs,
		})
	}

	if _, err := fmt.Fprintf(w, "ingested %d, failed %d\n", sum.OK, sum.Failed); err != nil {
		return err
	}
	for _, r := range results {
		if r.Err() != nil {
			if _, err := fmt.Fprintf(w, "  line %d: %v\n", r.Line(), r.Err()); err != nil {
				return err
			}
		}
	}
	return nil
}
