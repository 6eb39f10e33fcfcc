package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rapport/internal/cli"
	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/internal/presentation/graph"
	"github.com/aretw0/rapport/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the dialogue graph. With --user, the
visited and current nodes of that user's session are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stack, err := cli.Build(cfg, logging.NewNop())
		if err != nil {
			return err
		}
		defer stack.Close()

		var overlay *graph.GraphOverlay
		if userID, _ := cmd.Flags().GetString("user"); userID != "" {
			s, err := stack.Engine.Session(cmd.Context(), userID)
			switch {
			case errors.Is(err, domain.ErrSessionNotFound):
				return fmt.Errorf("no session for '%s'", userID)
			case err != nil:
				return err
			}
			overlay = graph.OverlayFor(s)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(stack.Engine.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("user", "", "Highlight the session of this user")
}
