package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/notekeeper/notekeeper/internal/logging"
	"github.com/notekeeper/notekeeper/internal/server"
	"github.com/notekeeper/notekeeper/internal/server/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
