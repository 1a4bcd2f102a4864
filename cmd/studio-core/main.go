package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentstudio/studio-core/internal/adapters/assets"
	"github.com/agentstudio/studio-core/internal/adapters/duckdb"
	"github.com/agentstudio/studio-core/internal/adapters/inference"
	"github.com/agentstudio/studio-core/internal/adapters/localmodel"
	"github.com/agentstudio/studio-core/internal/adapters/metrics"
	"github.com/agentstudio/studio-core/internal/adapters/probe"
	"github.com/agentstudio/studio-core/internal/config"
	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
	"github.com/agentstudio/studio-core/pkg/studio"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting studio core")

	if err := run(logger); err != nil {
		logger.Error("studio core failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfgPath := os.Getenv("STUDIO_CONFIG")
	if cfgPath == "" {
		cfgPath = "studio.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := duckdb.NewStore(logger, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	assetStore, err := assets.NewStore(logger, db, cfg.AssetBaseURL, cfg.AssetDir)
	if err != nil {
		return fmt.Errorf("init asset store: %w", err)
	}

	clients := make(map[string]ports.InferenceClient, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		clients[name] = inference.NewClient(name, pc.BaseURL, pc.APIKey)
	}

	device := domain.DeviceFacts{
		Name:        cfg.DeviceName,
		MemoryBytes: cfg.DeviceMemoryGiB << 30,
	}

	core, err := studio.New(ctx, studio.Options{
		Logger:             logger,
		Device:             device,
		Metrics:            metrics.NewSource(logger, nil),
		Probe:              probe.NewHTTPProbe(logger, cfg.ConnectivityURL),
		Clients:            clients,
		Assets:             assetStore,
		Loader:             localmodel.NewLoader(logger),
		Profile:            db,
		MonitorTick:        cfg.MonitorTick,
		PollInterval:       cfg.PollInterval,
		RequestTimeout:     cfg.RequestTimeout,
		MaxQueueDepth:      cfg.MaxQueueDepth,
		CacheCapacity:      cfg.CacheCapacity,
		CacheTTL:           cfg.CacheTTL,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("init studio: %w", err)
	}

	logger.Info("studio core online",
		"profile", core.Profile().Name,
		"models", len(core.AvailableModels()),
	)
	return core.Run(ctx)
}
