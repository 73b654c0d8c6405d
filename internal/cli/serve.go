package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerlink/internal/api"
	"ledgerlink/internal/infrastructure/config"
	"ledgerlink/internal/infrastructure/logging"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Config  string
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.IntVar(&flags.Port, "port", 0, "Port to listen on (0 = from config)")
	flag.StringVar(&flags.Config, "config", "config.yaml", "Configuration file path")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	port := cfg.Server.Port
	if flags.Port != 0 {
		port = flags.Port
	}
	apiCfg := api.Config{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if len(apiCfg.AllowedOrigins) == 0 {
		apiCfg.AllowedOrigins = api.DefaultConfig().AllowedOrigins
	}

	server := api.NewServer(apiCfg, app.Store, app.Reconciler, app.Invoicer, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
