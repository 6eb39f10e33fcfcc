package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rapport/internal/cli"
	"github.com/aretw0/rapport/internal/config"
	"github.com/aretw0/rapport/pkg/persistence/middleware"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect and remove the sessions kept by the configured store.`,
}

func openStore(cmd *cobra.Command) (*cli.StoreBundle, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	b, err := cli.OpenStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return b, cfg, nil
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		users, err := b.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, u := range users {
			fmt.Fprintln(out, "- "+u)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Print a session as JSON",
	Long:  `Prints the stored session. Fields matching session.redact are masked unless --raw is set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		store := b.Store
		if raw, _ := cmd.Flags().GetBool("raw"); !raw {
			redactor, err := middleware.NewRedactor(cfg.Session.Redact)
			if err != nil {
				return fmt.Errorf("session.redact: %w", err)
			}
			store = middleware.Chain(store, middleware.NewPIIMiddleware(redactor))
		}

		s, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [user-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = b.Store.List(cmd.Context()); err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
		} else if len(args) == 0 {
			return errors.New("requires at least one user id or --all")
		}

		var errs []error
		for _, userID := range args {
			if err := b.Store.Delete(cmd.Context(), userID); err != nil {
				errs = append(errs, fmt.Errorf("removing '%s': %w", userID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", userID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("raw", false, "Show unmasked profile values")
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}
