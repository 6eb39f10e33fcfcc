package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/rapport/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the graph in the terminal",
	Long: `Runs one conversation over stdin/stdout. Numbers pick buttons; /back, /skip,
/done and /edit <field> send the matching events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg, true)
		if err != nil {
			return err
		}

		stack, err := cli.Build(cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		userID, _ := cmd.Flags().GetString("user")
		headless, _ := cmd.Flags().GetBool("headless")
		fresh, _ := cmd.Flags().GetBool("fresh")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.RunChat(sigCtx, stack.Engine, cli.ChatOptions{
			UserID:   userID,
			Headless: headless,
			Fresh:    fresh,
			Input:    cmd.InOrStdin(),
			Output:   cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("user", "local", "User id of the conversation")
	chatCmd.Flags().Bool("headless", false, "Plain output without banner, prompt or markdown rendering")
	chatCmd.Flags().Bool("fresh", false, "Forget the stored session before starting")
}
