// Package studio is the embeddable entry point to the generation-dispatch core.
// The host application constructs a Studio with its collaborator adapters and
// talks to it in-process; there is no network surface.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
	"github.com/agentstudio/studio-core/internal/core/services"
)

// Options configures a Studio. Logger, Metrics, Probe, Assets, and Loader are
// required; zero durations and counts fall back to sensible defaults.
type Options struct {
	Logger  *slog.Logger
	Device  domain.DeviceFacts
	Catalog []domain.ModelDescriptor // nil means domain.DefaultCatalog()

	Metrics ports.MetricsSource
	Probe   ports.ConnectivityProbe
	Clients map[string]ports.InferenceClient // key: provider name
	Assets  ports.ModelAssetStore
	Loader  ports.ModelLoader
	Profile ports.ProfileStore // optional: persists the device profile

	MonitorTick        time.Duration
	PollInterval       time.Duration
	RequestTimeout     time.Duration
	MaxQueueDepth      int
	CacheCapacity      int
	CacheTTL           time.Duration
	SessionIdleTimeout time.Duration
}

// Studio owns the dispatch pipeline: profiler, monitor, cache, offline engine,
// dispatcher, and realtime sessions.
type Studio struct {
	logger     *slog.Logger
	registry   *services.ModelRegistry
	monitor    *services.Monitor
	offline    *services.OfflineEngine
	dispatcher *services.Dispatcher
	sessions   *services.RealtimeSessions
	bus        *services.EventBus
	profileDB  ports.ProfileStore
	profile    *domain.OptimizationProfile
}

// New profiles the device (reusing a persisted profile when one exists) and
// wires the core services together. Call Run to start the background loops.
func New(ctx context.Context, opts Options) (*Studio, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("studio: Logger is required")
	}
	if opts.Metrics == nil || opts.Probe == nil {
		return nil, fmt.Errorf("studio: Metrics and Probe collaborators are required")
	}
	if opts.Assets == nil || opts.Loader == nil {
		return nil, fmt.Errorf("studio: Assets and Loader collaborators are required")
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}

	registry, err := services.NewModelRegistry(opts.Logger, catalog)
	if err != nil {
		return nil, err
	}

	profile := resolveProfile(ctx, opts)

	bus := services.NewEventBus(opts.Logger)
	monitor := services.NewMonitor(opts.Logger, opts.Metrics, profile, opts.MonitorTick)
	cache := services.NewResultCache(opts.CacheCapacity, opts.CacheTTL)
	offline := services.NewOfflineEngine(opts.Logger, opts.Assets, opts.Loader, catalog)

	dispatcher := services.NewDispatcher(
		opts.Logger,
		registry,
		cache,
		offline,
		monitor,
		opts.Probe,
		opts.Clients,
		bus,
		services.DispatcherConfig{
			MaxQueueDepth:  opts.MaxQueueDepth,
			PollInterval:   opts.PollInterval,
			RequestTimeout: opts.RequestTimeout,
		},
	)

	sessions := services.NewRealtimeSessions(opts.Logger, dispatcher, registry, opts.SessionIdleTimeout)

	return &Studio{
		logger:     opts.Logger,
		registry:   registry,
		monitor:    monitor,
		offline:    offline,
		dispatcher: dispatcher,
		sessions:   sessions,
		bus:        bus,
		profileDB:  opts.Profile,
		profile:    profile,
	}, nil
}

// resolveProfile loads the last-known-good profile when a store is configured,
// falling back to fresh device profiling. Profiling never fails; it degrades to
// the conservative tier on unknown facts.
func resolveProfile(ctx context.Context, opts Options) *domain.OptimizationProfile {
	if opts.Profile != nil {
		if stored, ok, err := opts.Profile.Load(ctx); err == nil && ok {
			opts.Logger.Info("reusing persisted optimization profile", "profile", stored.Name)
			return stored
		} else if err != nil {
			opts.Logger.Warn("profile load failed, re-profiling device", "error", err)
		}
	}

	profiler := services.NewDeviceProfiler(opts.Logger)
	profile := profiler.Profile(opts.Device)

	if opts.Profile != nil {
		if err := opts.Profile.Save(ctx, profile); err != nil {
			opts.Logger.Warn("profile save failed", "error", err)
		}
	}
	return profile
}

// Run starts the monitor, dispatcher, and session reaper. Blocks until ctx is
// cancelled; offline models are unloaded on the way out.
func (s *Studio) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.monitor.Run(gCtx) })
	g.Go(func() error { return s.dispatcher.Run(gCtx) })
	g.Go(func() error { return s.sessions.Run(gCtx) })

	err := g.Wait()
	s.offline.Cleanup()
	return err
}

// Submit is the primary entry point: it returns a channel that receives exactly
// one terminal result for the request.
func (s *Studio) Submit(ctx context.Context, req domain.GenerationRequest) (<-chan domain.GenerationResult, error) {
	return s.dispatcher.Submit(ctx, req)
}

// StartRealtimeSession pins an interactive session to a model and media type.
func (s *Studio) StartRealtimeSession(modelID string, mediaType domain.ModelType) (domain.SessionID, error) {
	return s.sessions.Start(modelID, mediaType)
}

// ProcessRealtime runs one interactive input through the pinned session.
func (s *Studio) ProcessRealtime(ctx context.Context, id domain.SessionID, input string, params map[string]any) (domain.GenerationResult, error) {
	return s.sessions.Process(ctx, id, input, params)
}

// StopRealtimeSession ends a session; later calls on it fail with
// domain.ErrSessionNotFound.
func (s *Studio) StopRealtimeSession(id domain.SessionID) error {
	return s.sessions.Stop(id)
}

// AvailableModels lists the catalog, optionally filtered by media type.
func (s *Studio) AvailableModels(filter ...domain.ModelType) []domain.ModelDescriptor {
	return s.registry.List(filter...)
}

// SetModelEnabled toggles a model for routing.
func (s *Studio) SetModelEnabled(modelID string, enabled bool) error {
	return s.registry.SetEnabled(modelID, enabled)
}

// DownloadModel fetches an offline model's asset. Idempotent.
func (s *Studio) DownloadModel(ctx context.Context, modelID string) error {
	return s.offline.Download(ctx, modelID)
}

// LoadModel activates a downloaded offline model.
func (s *Studio) LoadModel(ctx context.Context, modelID string) error {
	return s.offline.Load(ctx, modelID)
}

// ReclaimStorage removes assets of downloaded-but-unloaded models.
func (s *Studio) ReclaimStorage(ctx context.Context) ([]string, error) {
	return s.offline.ReclaimStorage(ctx)
}

// OfflineModels reports the lifecycle state of every offline-capable model.
func (s *Studio) OfflineModels() []services.OfflineModelState {
	return s.offline.States()
}

// QueueLength reports queued (not yet admitted) requests.
func (s *Studio) QueueLength() int {
	return s.dispatcher.QueueLen()
}

// CacheStats reports result cache effectiveness.
func (s *Studio) CacheStats() services.CacheStats {
	return s.dispatcher.CacheStats()
}

// Events returns a subscription for one request's lifecycle events.
func (s *Studio) Events(requestID string) (<-chan services.Event, func()) {
	return s.bus.Subscribe(requestID)
}

// Profile returns the live optimization profile (concurrency reflects the
// monitor's current allowance).
func (s *Studio) Profile() domain.OptimizationProfile {
	return s.monitor.Profile()
}
