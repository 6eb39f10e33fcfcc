package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/rapport/internal/cli"
	httpAdapter "github.com/aretw0/rapport/pkg/adapters/http"
	"github.com/aretw0/rapport/pkg/inbound"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the events API, health and Prometheus metrics, and flushes pending session writes in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger, err := newLogger(cmd, cfg, false)
		if err != nil {
			return err
		}

		stack, err := cli.Build(cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		handler := httpAdapter.NewHandler(stack.Engine,
			httpAdapter.WithSanitizer(inbound.NewSanitizer(cfg.Server.MaxInputSize)),
			httpAdapter.WithRedactor(stack.Redactor),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(stack.Registry, promhttp.HandlerOpts{})),
			httpAdapter.WithLogger(logger),
		)
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			logger.Info("rapport server listening", "addr", srv.Addr, "graph", stack.Engine.Name)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			return stack.Engine.Run(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down", "signal", sigCtx.Signal())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		})

		waitErr := g.Wait()
		if err := stack.Engine.Flush(context.Background()); err != nil {
			logger.Error("pending sessions not flushed", "pending", stack.Engine.Sessions().Pending(), "error", err)
		}
		if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
			return waitErr
		}
		logger.Info("rapport server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
}
