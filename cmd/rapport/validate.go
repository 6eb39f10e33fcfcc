package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rapport/internal/cli"
	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the graph for consistency",
	Long: `Crawls the graph from its entry node and reports dangling targets, duplicate field
owners, unknown catalogues and unreachable nodes. Warnings do not fail the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cat := catalog.Empty()
		if cfg.Catalog.Path != "" {
			if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
				return err
			}
		}
		loader, err := cli.OpenLoader(cfg.Graph)
		if err != nil {
			return err
		}
		var opts []graph.Option
		if cfg.Graph.Entry != "" {
			opts = append(opts, graph.WithEntry(cfg.Graph.Entry))
		}
		if cfg.Graph.Home != "" {
			opts = append(opts, graph.WithHome(cfg.Graph.Home))
		}
		g, err := graph.Load(loader, opts...)
		if err != nil {
			return err
		}

		issues, err := g.Validate(cat)
		out := cmd.OutOrStdout()
		for _, issue := range issues {
			fmt.Fprintln(out, issue.String())
		}
		var verr *graph.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("validation failed with %d error(s)", len(verr.Issues))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Graph is valid! ✅ (%d nodes, %d fields)\n", g.Len(), len(g.Fields()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
