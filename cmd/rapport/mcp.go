package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/rapport/internal/cli"
	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/pkg/adapters/mcp"
	"github.com/aretw0/rapport/pkg/inbound"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes render, dispatch, get_session and get_graph as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// stdout carries JSON-RPC in stdio mode, so logs always go to stderr.
		log.SetOutput(os.Stderr)
		logger, err := logging.NewFromConfig(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		stack, err := cli.Build(cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		srv := mcp.NewServer(stack.Engine,
			mcp.WithRedactor(stack.Redactor),
			mcp.WithSanitizer(inbound.NewSanitizer(cfg.Server.MaxInputSize)),
			mcp.WithLogger(logger),
		)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		go stack.Engine.Run(sigCtx)
		defer stack.Engine.Flush(cmd.Context())

		switch transport {
		case "stdio":
			logger.Info("Starting rapport MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting rapport MCP server (SSE)", "port", port)
			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
