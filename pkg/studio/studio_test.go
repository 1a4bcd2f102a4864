package studio

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

type fakeMetrics struct{}

func (fakeMetrics) Sample(ctx context.Context) (domain.PerformanceSample, error) {
	return domain.PerformanceSample{CPUUsage: 20, MemoryUsage: 30, BatteryLevel: 95, ThermalState: domain.ThermalNormal}, nil
}

type fakeProbe struct{ online bool }

func (p fakeProbe) Usable(ctx context.Context) bool { return p.online }

type fakeClient struct{}

func (fakeClient) Generate(ctx context.Context, model domain.ModelDescriptor, prompt string, params map[string]any) (string, error) {
	return "online:" + model.ID + ":" + prompt, nil
}

type fakeAssets struct {
	mu    sync.Mutex
	paths map[string]string
}

func newFakeAssets() *fakeAssets { return &fakeAssets{paths: make(map[string]string)} }

func (a *fakeAssets) Download(ctx context.Context, modelID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	path := "/assets/" + modelID + ".bin"
	a.paths[modelID] = path
	return path, nil
}

func (a *fakeAssets) Exists(modelID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.paths[modelID]
	return ok
}

func (a *fakeAssets) Remove(modelID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.paths, modelID)
	return nil
}

type fakeLoader struct{}

func (fakeLoader) Load(ctx context.Context, desc domain.ModelDescriptor, assetPath string) (ports.OfflineModel, error) {
	return fakeRuntime{id: desc.ID}, nil
}

type fakeRuntime struct{ id string }

func (r fakeRuntime) Infer(ctx context.Context, input string, params map[string]any) (string, error) {
	return "offline:" + r.id + ":" + input, nil
}

func (fakeRuntime) Close() error { return nil }

type memoryProfileStore struct {
	mu      sync.Mutex
	profile *domain.OptimizationProfile
}

func (s *memoryProfileStore) Load(ctx context.Context) (*domain.OptimizationProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, false, nil
	}
	return s.profile.Clone(), true, nil
}

func (s *memoryProfileStore) Save(ctx context.Context, profile *domain.OptimizationProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile.Clone()
	return nil
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Logger:       slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		Device:       domain.DeviceFacts{Name: "test device", MemoryBytes: 8 << 30},
		Metrics:      fakeMetrics{},
		Probe:        fakeProbe{online: true},
		Clients:      map[string]ports.InferenceClient{"openai": fakeClient{}, "stability": fakeClient{}},
		Assets:       newFakeAssets(),
		Loader:       fakeLoader{},
		PollInterval: 10 * time.Millisecond,
	}
}

func startStudio(t *testing.T, opts Options) *Studio {
	t.Helper()
	core, err := New(context.Background(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = core.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return core
}

func TestNewRequiresCollaborators(t *testing.T) {
	opts := testOptions(t)
	opts.Metrics = nil
	_, err := New(context.Background(), opts)
	assert.Error(t, err)

	opts = testOptions(t)
	opts.Loader = nil
	_, err = New(context.Background(), opts)
	assert.Error(t, err)
}

func TestSubmitEndToEnd(t *testing.T) {
	core := startStudio(t, testOptions(t))

	ch, err := core.Submit(context.Background(), domain.GenerationRequest{
		ModelID:   "dalle3",
		Type:      domain.ModelTypeImage,
		Prompt:    "a castle",
		Priority:  domain.PriorityNormal,
		Cacheable: true,
	})
	require.NoError(t, err)

	select {
	case result := <-ch:
		require.True(t, result.Success, "error: %s", result.Error)
		assert.Equal(t, "online:dalle3:a castle", result.Output)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	stats := core.CacheStats()
	assert.Equal(t, 1, stats.Size)
}

func TestOfflineModelLifecycleThroughFacade(t *testing.T) {
	core := startStudio(t, testOptions(t))
	ctx := context.Background()

	require.NoError(t, core.DownloadModel(ctx, "sdxl-turbo"))
	require.NoError(t, core.LoadModel(ctx, "sdxl-turbo"))

	var found bool
	for _, state := range core.OfflineModels() {
		if state.Descriptor.ID == "sdxl-turbo" {
			found = true
			assert.True(t, state.Downloaded)
			assert.True(t, state.Loaded)
		}
	}
	assert.True(t, found)

	// Loaded models survive a reclaim pass.
	removed, err := core.ReclaimStorage(ctx)
	require.NoError(t, err)
	assert.NotContains(t, removed, "sdxl-turbo")
}

func TestRealtimeSessionThroughFacade(t *testing.T) {
	core := startStudio(t, testOptions(t))
	ctx := context.Background()

	require.NoError(t, core.DownloadModel(ctx, "sdxl-turbo"))
	require.NoError(t, core.LoadModel(ctx, "sdxl-turbo"))

	id, err := core.StartRealtimeSession("sdxl-turbo", domain.ModelTypeImage)
	require.NoError(t, err)

	result, err := core.ProcessRealtime(ctx, id, "sketch a castle", nil)
	require.NoError(t, err)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "offline:sdxl-turbo:sketch a castle", result.Output)

	require.NoError(t, core.StopRealtimeSession(id))
	_, err = core.ProcessRealtime(ctx, id, "again", nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPersistedProfileIsReused(t *testing.T) {
	store := &memoryProfileStore{}

	opts := testOptions(t)
	opts.Profile = store
	first, err := New(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "balanced", first.Profile().Name)

	// A second start sees the saved profile even with different device facts.
	opts = testOptions(t)
	opts.Profile = store
	opts.Device = domain.DeviceFacts{Name: "other device", MemoryBytes: 2 << 30}
	second, err := New(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "balanced", second.Profile().Name)
}

func TestModelCatalogAndToggle(t *testing.T) {
	core := startStudio(t, testOptions(t))

	all := core.AvailableModels()
	assert.NotEmpty(t, all)

	images := core.AvailableModels(domain.ModelTypeImage)
	for _, desc := range images {
		assert.Equal(t, domain.ModelTypeImage, desc.Type)
	}

	require.NoError(t, core.SetModelEnabled("dalle3", false))
	for _, desc := range core.AvailableModels() {
		if desc.ID == "dalle3" {
			assert.False(t, desc.Enabled)
		}
	}
}
