// Package main implements the entry point for the telestate daemon.
// Telestated hosts the central telephony state registry and exposes it
// over a WebSocket gateway, a NATS broadcast bridge and a Prometheus
// metrics endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/telestate/config"
	"github.com/c360/telestate/gateway"
	"github.com/c360/telestate/metric"
	"github.com/c360/telestate/natsbridge"
	"github.com/c360/telestate/registry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "telestated"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := loadConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	metricsRegistry := metric.NewMetricsRegistry()
	metrics := metricsRegistry.CoreMetrics()

	metricsServer := startMetricsServer(cfg, metricsRegistry)

	bridge, broadcaster, err := setupBridge(cfg, logger, metrics)
	if err != nil {
		return err
	}

	reg, err := registry.New(cfg.Registry, registry.Deps{
		Logger:      logger,
		Metrics:     metrics,
		Broadcaster: broadcaster,
	})
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}

	ctx := context.Background()
	gatewayServer, err := startGateway(ctx, cfg, reg, logger, metrics)
	if err != nil {
		return err
	}

	slog.Info("telestated started",
		"slots", cfg.Registry.SlotCount,
		"gateway", cfg.Gateway.Enabled,
		"nats", cfg.NATS.Enabled,
		"metrics", cfg.Metrics.Enabled)

	return runUntilSignal(ctx, cliCfg.ShutdownTimeout, gatewayServer, bridge, metricsServer)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting telestated",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// loadConfiguration loads the config file, or the defaults when no path
// was given.
func loadConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	if cliCfg.ConfigPath == "" {
		cfg := config.Default()
		return &cfg, nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// startMetricsServer starts the Prometheus endpoint when enabled.
func startMetricsServer(cfg *config.Config, metricsRegistry *metric.MetricsRegistry) *metric.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	slog.Info("metrics server started", "address", server.Address())
	return server
}

// setupBridge connects the NATS broadcast bridge when enabled. The
// broadcaster stays nil otherwise so the registry skips publishing.
func setupBridge(
	cfg *config.Config,
	logger *slog.Logger,
	metrics *metric.Metrics,
) (*natsbridge.Bridge, registry.Broadcaster, error) {
	if !cfg.NATS.Enabled {
		return nil, nil, nil
	}

	bridge, err := natsbridge.New(cfg.NATS, logger, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("connect NATS bridge: %w", err)
	}
	return bridge, bridge, nil
}

// startGateway starts the WebSocket gateway when enabled.
func startGateway(
	ctx context.Context,
	cfg *config.Config,
	reg *registry.Registry,
	logger *slog.Logger,
	metrics *metric.Metrics,
) (*gateway.Server, error) {
	if !cfg.Gateway.Enabled {
		return nil, nil
	}

	server, err := gateway.New(cfg.Gateway, reg, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return nil, fmt.Errorf("start gateway: %w", err)
	}
	return server, nil
}

// runUntilSignal blocks until SIGINT or SIGTERM, then shuts everything
// down in reverse start order.
func runUntilSignal(
	ctx context.Context,
	timeout time.Duration,
	gatewayServer *gateway.Server,
	bridge *natsbridge.Bridge,
	metricsServer *metric.Server,
) error {
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	var firstErr error
	if gatewayServer != nil {
		if err := gatewayServer.Stop(timeout); err != nil {
			slog.Error("gateway shutdown failed", "error", err)
			firstErr = err
		}
	}
	if bridge != nil {
		if err := bridge.Close(); err != nil {
			slog.Error("NATS bridge shutdown failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	slog.Info("telestated shutdown complete")
	return firstErr
}
