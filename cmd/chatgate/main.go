package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"chatgate/internal/auth"
	"chatgate/internal/config"
	"chatgate/internal/database"
	"chatgate/internal/gateway"
	"chatgate/internal/metrics"
	"chatgate/internal/retry"
	"chatgate/internal/service"
	"chatgate/internal/tracing"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		configPath  = flag.String("config", "config.json", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("chatgate %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *verbose); err != nil {
		logrus.WithError(err).Fatal("Server exited with error")
	}
}

func run(ctx context.Context, configPath string, verbose bool) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !verbose && cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		logger.SetLevel(level)
	}

	tracer := tracing.NewManager(cfg.Tracing, logger)
	if err := tracer.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Tracing shutdown failed")
		}
	}()

	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  cfg.Retry.MaxAttempts,
		Jitter:       true,
	})
	err = backoff.Retry(ctx, func() error {
		var openErr error
		db, openErr = database.New(cfg.Database.Path)
		if openErr != nil {
			logger.WithError(openErr).Warn("Database not ready, retrying")
		}
		return openErr
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("Database close failed")
		}
	}()

	metricsReg := metrics.NewRegistry()
	authenticator := auth.NewAuthenticator(cfg.Auth)

	registry := gateway.NewPresenceRegistry()
	router := gateway.NewDeliveryRouter(registry, db, metricsReg, logger)
	lifecycle := gateway.NewLifecycleManager(authenticator, registry, db, metricsReg, logger)

	bus := gateway.NewEventBus(cfg.Gateway.EventBufferLen)
	bridge := gateway.NewEventBridge(bus, router, logger)
	go bridge.Run(ctx)

	chatSvc := service.NewChatService(db, router, logger)
	friendSvc := service.NewFriendService(db, bus, logger)
	gw := gateway.NewGateway(lifecycle, chatSvc, cfg.Gateway, logger)

	server := NewServer(cfg.Server, chatSvc, friendSvc, gw, authenticator, metricsReg, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Start()
	}()

	select {
	case err := <-serverErrCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
