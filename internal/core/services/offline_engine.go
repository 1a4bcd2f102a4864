package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// OfflineModelState is the lifecycle position of a catalogued offline model.
type OfflineModelState struct {
	Descriptor domain.ModelDescriptor `json:"descriptor"`
	Downloaded bool                   `json:"downloaded"`
	Loaded     bool                   `json:"loaded"`
	AssetPath  string                 `json:"asset_path,omitempty"`
}

type offlineModel struct {
	desc       domain.ModelDescriptor
	downloaded bool
	assetPath  string
	runtime    ports.OfflineModel // non-nil iff loaded
}

// OfflineEngine maintains the catalog of offline-capable models with a
// download/load lifecycle and a uniform inference contract. Models never
// auto-unload; only Unload, Cleanup, or ReclaimStorage (downloaded && !loaded
// only) remove anything.
type OfflineEngine struct {
	logger *slog.Logger
	assets ports.ModelAssetStore
	loader ports.ModelLoader

	mu      sync.RWMutex
	catalog map[string]*offlineModel
}

// NewOfflineEngine catalogs every offline-capable descriptor. Models already
// present in the asset store start in the downloaded state.
func NewOfflineEngine(logger *slog.Logger, assets ports.ModelAssetStore, loader ports.ModelLoader, descriptors []domain.ModelDescriptor) *OfflineEngine {
	e := &OfflineEngine{
		logger:  logger,
		assets:  assets,
		loader:  loader,
		catalog: make(map[string]*offlineModel),
	}
	for _, desc := range descriptors {
		if !desc.OfflineCapable {
			continue
		}
		e.catalog[desc.ID] = &offlineModel{
			desc:       desc,
			downloaded: assets.Exists(desc.ID),
		}
	}
	logger.Info("offline engine catalogued", "models", len(e.catalog))
	return e
}

// Download fetches the model asset. Idempotent: a no-op when already downloaded.
// Failures leave catalog state unchanged and are retryable.
func (e *OfflineEngine) Download(ctx context.Context, modelID string) error {
	e.mu.RLock()
	m, ok := e.catalog[modelID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("offline download %s: %w", modelID, domain.ErrModelNotFound)
	}

	e.mu.RLock()
	already := m.downloaded
	e.mu.RUnlock()
	if already {
		return nil
	}

	path, err := e.assets.Download(ctx, modelID)
	if err != nil {
		return fmt.Errorf("download model %s: %w", modelID, err)
	}

	e.mu.Lock()
	m.downloaded = true
	m.assetPath = path
	e.mu.Unlock()

	e.logger.Info("model downloaded", "model", modelID, "path", path)
	return nil
}

// Load brings a downloaded model into an active, invocable state. Loading an
// already-loaded model is a no-op.
func (e *OfflineEngine) Load(ctx context.Context, modelID string) error {
	e.mu.Lock()
	m, ok := e.catalog[modelID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("offline load %s: %w", modelID, domain.ErrModelNotFound)
	}
	if m.runtime != nil {
		e.mu.Unlock()
		return nil
	}
	if !m.downloaded {
		e.mu.Unlock()
		return fmt.Errorf("offline load %s: model not downloaded", modelID)
	}
	desc, path := m.desc, m.assetPath
	e.mu.Unlock()

	runtime, err := e.loader.Load(ctx, desc, path)
	if err != nil {
		return fmt.Errorf("load model %s: %w", modelID, err)
	}

	e.mu.Lock()
	m.runtime = runtime
	e.mu.Unlock()

	e.logger.Info("model loaded", "model", modelID)
	return nil
}

// Infer dispatches to the loaded model's inference function.
func (e *OfflineEngine) Infer(ctx context.Context, modelID string, input string, params map[string]any) (string, error) {
	e.mu.RLock()
	m, ok := e.catalog[modelID]
	var runtime ports.OfflineModel
	if ok {
		runtime = m.runtime
	}
	e.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("offline infer %s: %w", modelID, domain.ErrModelNotFound)
	}
	if runtime == nil {
		return "", &domain.ModelNotLoadedError{ModelID: modelID}
	}

	out, err := runtime.Infer(ctx, input, params)
	if err != nil {
		// The model stays loaded; inference failures are retryable by the caller.
		return "", &domain.InferenceError{ModelID: modelID, Err: err}
	}
	return out, nil
}

// IsLoaded reports whether the model is active and invocable.
func (e *OfflineEngine) IsLoaded(modelID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.catalog[modelID]
	return ok && m.runtime != nil
}

// IsDownloaded reports whether the model asset is on local storage.
func (e *OfflineEngine) IsDownloaded(modelID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.catalog[modelID]
	return ok && m.downloaded
}

// Unload closes the model runtime, keeping the downloaded asset.
func (e *OfflineEngine) Unload(modelID string) error {
	e.mu.Lock()
	m, ok := e.catalog[modelID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("offline unload %s: %w", modelID, domain.ErrModelNotFound)
	}
	runtime := m.runtime
	m.runtime = nil
	e.mu.Unlock()

	if runtime == nil {
		return nil
	}
	if err := runtime.Close(); err != nil {
		return fmt.Errorf("close model %s: %w", modelID, err)
	}
	e.logger.Info("model unloaded", "model", modelID)
	return nil
}

// ReclaimStorage removes assets for models that are downloaded but not loaded.
// An active model is never removed out from under a caller.
func (e *OfflineEngine) ReclaimStorage(ctx context.Context) (removed []string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, m := range e.catalog {
		if !m.downloaded || m.runtime != nil {
			continue
		}
		if err := e.assets.Remove(id); err != nil {
			return removed, fmt.Errorf("remove asset %s: %w", id, err)
		}
		m.downloaded = false
		m.assetPath = ""
		removed = append(removed, id)
	}
	sort.Strings(removed)
	if len(removed) > 0 {
		e.logger.Info("storage reclaimed", "removed", removed)
	}
	return removed, nil
}

// Cleanup unloads every loaded model. Called on shutdown.
func (e *OfflineEngine) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, m := range e.catalog {
		if m.runtime == nil {
			continue
		}
		if err := m.runtime.Close(); err != nil {
			e.logger.Warn("model close failed during cleanup", "model", id, "error", err)
		}
		m.runtime = nil
	}
}

// States returns the lifecycle state of every catalogued model, sorted by ID.
func (e *OfflineEngine) States() []OfflineModelState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]OfflineModelState, 0, len(e.catalog))
	for _, m := range e.catalog {
		out = append(out, OfflineModelState{
			Descriptor: m.desc,
			Downloaded: m.downloaded,
			Loaded:     m.runtime != nil,
			AssetPath:  m.assetPath,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Descriptor.ID < out[j].Descriptor.ID })
	return out
}

// LoadedCount returns how many models are currently active.
func (e *OfflineEngine) LoadedCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for _, m := range e.catalog {
		if m.runtime != nil {
			count++
		}
	}
	return count
}
