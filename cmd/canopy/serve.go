package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/canopy/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes render sessions over a JSON API with a websocket event stream.
The API is described at /openapi.yaml and metrics are served at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		rt, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer rt.close()

		handler, err := httpAdapter.NewHandler(rt.engine,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(rt.registry),
			httpAdapter.WithOriginPatterns(cfg.HTTP.Origins...),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := httpAdapter.ListenAndServe(ctx, addr, handler, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("canopy server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
