package ports

import (
	"context"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

// ConnectivityProbe answers whether the network is currently usable. The core only
// needs this single boolean; link quality estimation lives with the host app.
type ConnectivityProbe interface {
	Usable(ctx context.Context) bool
}

// MetricsSource supplies live system metrics. Real values on a real device,
// injectable fakes in tests.
type MetricsSource interface {
	Sample(ctx context.Context) (domain.PerformanceSample, error)
}

// InferenceClient calls one online provider. Body shapes are the provider's
// contract, not this core's; the core only sees prompt in, output out.
type InferenceClient interface {
	Generate(ctx context.Context, model domain.ModelDescriptor, prompt string, params map[string]any) (string, error)
}

// ModelAssetStore persists offline model assets.
type ModelAssetStore interface {
	// Download fetches the asset for the model and returns its local path.
	// Idempotent: a no-op returning the existing path when already present.
	Download(ctx context.Context, modelID string) (string, error)

	// Exists reports whether the asset is already on local storage.
	Exists(modelID string) bool

	// Remove deletes the asset from local storage.
	Remove(modelID string) error
}

// OfflineModel is a loaded, invocable on-device model.
type OfflineModel interface {
	Infer(ctx context.Context, input string, params map[string]any) (string, error)
	Close() error
}

// ModelLoader brings a downloaded asset into an active OfflineModel.
type ModelLoader interface {
	Load(ctx context.Context, desc domain.ModelDescriptor, assetPath string) (OfflineModel, error)
}

// ProfileStore durably caches the device optimization profile across restarts.
type ProfileStore interface {
	// Load returns the cached profile, or ok=false when none is stored.
	Load(ctx context.Context) (profile *domain.OptimizationProfile, ok bool, err error)
	Save(ctx context.Context, profile *domain.OptimizationProfile) error
}
