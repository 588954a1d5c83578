// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Logring-rotatord watches a log directory for sealed trace segments
// and maintains per-stream generation rings with asynchronous
// compression to tar.gz archives.
//
// Producers write freely into <stream>.log and seal a segment by
// atomically renaming it to <stream>.<epoch>.bak; the daemon absorbs
// every sealed segment into a bounded ring of numbered generations
// and packages full rings into timestamped archives, keeping exactly
// one archive per stream.
//
// Configuration comes from an optional YAML file (--config or
// LOGRING_CONFIG) with flag overrides for the common knobs. The
// daemon exits zero on clean shutdown (SIGINT/SIGTERM) and non-zero
// on initialization failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logring/logring/lib/archive"
	"github.com/logring/logring/lib/config"
	"github.com/logring/logring/lib/process"
	"github.com/logring/logring/lib/rotor"
	"github.com/logring/logring/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath     string
		watchDir       string
		maxGenerations int
		metricsListen  string
		logLevel       string
		showVersion    bool
	)

	flag.StringVar(&configPath, "config", "", "path to the YAML config file (default: $"+config.EnvVar+")")
	flag.StringVar(&watchDir, "watch-dir", "", "directory to watch for sealed segments (overrides config)")
	flag.IntVar(&maxGenerations, "max-generations", 0, "generation ring depth (overrides config)")
	flag.StringVar(&metricsListen, "metrics-listen", "", "host:port for the Prometheus /metrics endpoint (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "minimum log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("logring-rotatord %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, watchDir, maxGenerations, metricsListen, logLevel)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archiver archive.Archiver
	switch cfg.Archiver.Mode {
	case "native":
		archiver = &archive.NativeArchiver{}
	default:
		archiver = &archive.ExecArchiver{Command: cfg.Archiver.Command}
	}

	var metrics *rotor.Metrics
	if cfg.MetricsListen != "" {
		metrics = rotor.NewMetrics(prometheus.DefaultRegisterer)
	}

	engine, err := rotor.New(rotor.Options{
		WatchDir:           cfg.WatchDir,
		Registry:           rotor.NewRegistry(cfg.Streams),
		MaxGenerations:     cfg.MaxGenerations,
		Archiver:           archiver,
		DeletePriorArchive: cfg.DeletePriorArchive,
		DeleteOriginals:    cfg.DeleteOriginals,
		ChecksumArchives:   cfg.ChecksumArchives,
		Logger:             logger,
		Metrics:            metrics,
	})
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	if cfg.MetricsListen != "" {
		go serveMetrics(ctx, logger, cfg.MetricsListen)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	engine.Wait()
	logger.Info("engine stopped")
	return nil
}

// applyOverrides folds non-empty flag values over the loaded config.
func applyOverrides(cfg *config.Config, watchDir string, maxGenerations int, metricsListen, logLevel string) {
	if watchDir != "" {
		cfg.WatchDir = watchDir
	}
	if maxGenerations > 0 {
		cfg.MaxGenerations = maxGenerations
	}
	if metricsListen != "" {
		cfg.MetricsListen = metricsListen
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// slogLevel maps a validated config level string to a slog.Level.
func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// serveMetrics exposes the Prometheus registry until the context is
// cancelled. A listener failure is logged, not fatal: metrics are an
// observation surface, not part of the rotation contract.
func serveMetrics(ctx context.Context, logger *slog.Logger, listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: listen, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "addr", listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics listener failed", "addr", listen, "error", err)
	}
}
