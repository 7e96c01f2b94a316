package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <department>",
		Short: "Find VP roles closest to a department",
		Long: `Embeds "<role prefix> of <department>" and prints the closest people whose
normalized role matches the filter role.`,
		Example: `  vpsearch search Sales
  vpsearch search "Human Resources" --limit 5 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptionsFromFlags(cmd, true))
			if err != nil {
				return err
			}
			defer a.Close()

			department := strings.Join(args, " ")
			filterRole, _ := cmd.Flags().GetString("filter-role")
			limit, _ := cmd.Flags().GetInt("limit")
			if filterRole == "" {
				filterRole = a.cfg.Search.FilterRole
			}
			if limit <= 0 {
				limit = a.cfg.Search.CandidateLimit
			}

			out, err := a.search.SearchDepartment(ctx, filterRole, department, limit)
			if err != nil {
				return fmt.Errorf("search %q: %w", department, err)
			}
			if jsonFlag(cmd) {
				return writeOutcomeJSON(cmd.OutOrStdout(), out)
			}
			return writeOutcomeTable(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("filter-role", "", "Normalized role to filter on (default from config)")
	cmd.Flags().Int("limit", 0, "Maximum number of results (default from config)")
	return cmd
}

type outcomeJSON struct {
	Status       string       `json:"status"`
	Results      []resultJSON `json:"results"`
	Count        int          `json:"count"`
	AverageScore float64      `json:"average_score"`
	Error        string       `json:"error,omitempty"`
}

type resultJSON struct {
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	Score float64 `json:"score"`
	Band  string  `json:"band"`
}

func writeOutcomeJSON(w io.Writer, out result.Outcome) error {
	resp := outcomeJSON{
		Status:       string(out.Status),
		Results:      make([]resultJSON, 0, len(out.Results)),
		Count:        len(out.Results),
		AverageScore: out.AverageScore(),
	}
	for _, r := range out.Results {
		resp.Results = append(resp.Results, resultJSON{
			Name:  r.Name(),
			Role:  r.Role(),
			Score: r.Score(),
			Band:  string(r.Band()),
		})
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// writeOutcomeTable renders results as an aligned table followed by the average score.
func writeOutcomeTable(w io.Writer, out result.Outcome) error {
	if !out.OK() {
		msg := "unknown error"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		_, err := fmt.Fprintf(w, "search failed: %s\n", msg)
		return err
	}
	if out.Empty() {
		_, err := fmt.Fprintln(w, "no matching roles")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tROLE\tSCORE\tBAND")
	for i, r := range out.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%s\n", i+1, r.Name(), r.Role(), r.Score(), r.Band())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d results, average score %.4f\n", len(out.Results), out.AverageScore())
	return err
}
