package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skill-connect/internal/app"
	"skill-connect/internal/config"
	"skill-connect/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matching engine HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.App.LogJSON, cfg.App.Debug)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		application, cleanup, err := app.Bootstrap(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := cleanup(); err != nil {
				log.Warn("cleanup error", zap.Error(err))
			}
		}()

		addr, err := app.ListenAddr(cfg.App.HTTPPort)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- application.Fiber.Listen(addr)
		}()
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Environment))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return application.Shutdown(ctx)
		}
	},
}
