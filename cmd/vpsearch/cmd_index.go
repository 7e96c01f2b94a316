package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the vector index",
	}
	cmd.AddCommand(newIndexCreateCmd(), newIndexDropCmd(), newIndexInfoCmd())
	return cmd
}

func newIndexCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the vector index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptionsFromFlags(cmd, false))
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.schema.Ensure(ctx)
			if err != nil {
				return fmt.Errorf("create index: %w", err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "index %s created\n", a.cfg.Index.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "index %s already exists\n", a.cfg.Index.Name)
			}
			return nil
		},
	}
}

func newIndexDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the vector index (documents are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to drop the index without --yes")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptionsFromFlags(cmd, false))
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.schema.Drop(ctx); err != nil {
				return fmt.Errorf("drop index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %s dropped\n", a.cfg.Index.Name)
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the drop")
	return cmd
}

func newIndexInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the index definition derived from config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptionsFromFlags(cmd, false))
			if err != nil {
				return err
			}
			defer a.Close()

			def, err := a.schema.Definition()
			if err != nil {
				return fmt.Errorf("index definition: %w", err)
			}
			exists, err := a.schema.Exists(ctx)
			if err != nil {
				return fmt.Errorf("index exists: %w", err)
			}
			if jsonFlag(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"name":   def.Name,
					"exists": exists,
					"fields": def.Fields,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexists: %t\n", def.String(), exists)
			return nil
		},
	}
}
