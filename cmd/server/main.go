package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/drujensen/datamodels/internal/api"
	"github.com/drujensen/datamodels/internal/api/websocket"
	"github.com/drujensen/datamodels/internal/app"
	"github.com/drujensen/datamodels/internal/impl/config"

	"go.uber.org/zap"
)

// The HTTP API on its own, configured only through the environment.
func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.LogLevel > zap.InfoLevel {
		cfg.LogLevel = zap.InfoLevel
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	global, err := config.LoadGlobalConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load global config", zap.Error(err))
	}

	hub := websocket.NewProgressHub(logger)
	go hub.Run(ctx)

	e := api.NewServer(logger, application.Metrics, application.ModelService, hub, global.Settings())
	if err := api.Serve(ctx, e, cfg.ListenAddr, logger); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
