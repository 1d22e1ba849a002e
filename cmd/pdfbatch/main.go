package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"pdfbatch/internal/config"
	"pdfbatch/internal/http/server"
	"pdfbatch/internal/infra/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to load .env", "error", err)
	}

	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	store, err := server.OpenStore(context.Background(), cfg, nil)
	if err != nil {
		logging.Error("Failed to open output store", "mode", cfg.Output.Mode, "error", err)
		os.Exit(1)
	}

	app, err := server.New(server.Deps{Config: cfg, Store: store})
	if err != nil {
		logging.Error("Failed to set up server", "error", err)
		os.Exit(1)
	}

	idleConnsClosed := make(chan struct{})
	janitor := server.NewJanitor(cfg, store)
	go janitor.Run(idleConnsClosed)

	logging.Info("Starting server", "addr", cfg.Server.Host+cfg.Server.Port, "output", cfg.Output.Mode)
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
