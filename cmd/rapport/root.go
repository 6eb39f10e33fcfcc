package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/rapport/internal/config"
	"github.com/aretw0/rapport/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "rapport",
	Short: "Rapport runs profile-collection conversations",
	Long: `Rapport interprets a dialogue graph and keeps one session per user,
collecting a profile through free-text, single-choice and multi-select questions.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default rapport.yaml when present)")
	rootCmd.PersistentFlags().String("graph", "", "Graph file or Loam directory (overrides graph.path)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads .env, the config file and the environment, then applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if graphPath, _ := cmd.Flags().GetString("graph"); graphPath != "" {
		cfg.Graph.Path = graphPath
		if info, err := os.Stat(graphPath); err == nil && info.IsDir() {
			cfg.Graph.Source = "loam"
		} else {
			cfg.Graph.Source = "yaml"
		}
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the configured logger. Quiet commands discard logs below debug.
func newLogger(cmd *cobra.Command, cfg *config.Config, quiet bool) (*slog.Logger, error) {
	if debug, _ := cmd.Flags().GetBool("debug"); quiet && !debug {
		return logging.NewNop(), nil
	}
	return logging.NewFromConfig(cfg.Log.Level, cfg.Log.Format)
}
