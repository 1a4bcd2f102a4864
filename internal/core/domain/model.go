package domain

import "errors"

// ModelType classifies models by the media they produce.
type ModelType string

const (
	ModelTypeVideo ModelType = "video"
	ModelTypeAudio ModelType = "audio"
	ModelTypeImage ModelType = "image"
	ModelTypeText  ModelType = "text"
	ModelTypeCode  ModelType = "code"
)

// ResourceRequirements describes what a model needs to run on-device.
type ResourceRequirements struct {
	MinMemoryBytes  int64 `json:"min_memory_bytes"`
	MinStorageBytes int64 `json:"min_storage_bytes"`
	GPURequired     bool  `json:"gpu_required"`
}

// ModelDescriptor describes a model available in the system, online (provider API)
// or offline (locally downloadable asset). Identity is ID.
type ModelDescriptor struct {
	ID             string               `json:"id"`       // unique key: "sdxl-turbo", "dalle3"
	Name           string               `json:"name"`     // human-readable: "SDXL Turbo"
	Type           ModelType            `json:"type"`     // media produced
	Provider       string               `json:"provider"` // "stability", "openai", "suno", ...
	Capabilities   []string             `json:"capabilities"`
	Requirements   ResourceRequirements `json:"requirements"`
	OnlineCapable  bool                 `json:"online_capable"`
	OfflineCapable bool                 `json:"offline_capable"`
	Enabled        bool                 `json:"enabled"`
	Version        string               `json:"version"` // folded into cache fingerprints
}

var (
	ErrModelNotFound = errors.New("model not found")
	ErrModelDisabled = errors.New("model is disabled")
)

const gib = int64(1) << 30

// DefaultCatalog returns the model set the studio ships with. Online-only entries
// reach an external provider API; offline-capable entries have a downloadable
// on-device asset. Enabled by default; users toggle per model.
func DefaultCatalog() []ModelDescriptor {
	return []ModelDescriptor{
		// Image generation
		{
			ID:             "sdxl-turbo",
			Name:           "SDXL Turbo",
			Type:           ModelTypeImage,
			Provider:       "stability",
			Capabilities:   []string{"image-generation", "fast", "high-quality"},
			Requirements:   ResourceRequirements{MinMemoryBytes: 4 * gib, MinStorageBytes: 7 * gib, GPURequired: true},
			OnlineCapable:  true,
			OfflineCapable: true,
			Enabled:        true,
			Version:        "1.0",
		},
		{
			ID:            "dalle3",
			Name:          "DALL-E 3",
			Type:          ModelTypeImage,
			Provider:      "openai",
			Capabilities:  []string{"image-generation", "text-to-image"},
			OnlineCapable: true,
			Enabled:       true,
			Version:       "3",
		},
		{
			ID:            "playground-v2",
			Name:          "Playground v2",
			Type:          ModelTypeImage,
			Provider:      "playground",
			Capabilities:  []string{"image-generation", "aesthetic"},
			OnlineCapable: true,
			Enabled:       true,
			Version:       "2.1",
		},
		// Video generation
		{
			ID:             "stable-video-diffusion",
			Name:           "Stable Video Diffusion",
			Type:           ModelTypeVideo,
			Provider:       "stability",
			Capabilities:   []string{"image-to-video", "video-generation"},
			Requirements:   ResourceRequirements{MinMemoryBytes: 8 * gib, MinStorageBytes: 10 * gib, GPURequired: true},
			OnlineCapable:  true,
			OfflineCapable: true,
			Enabled:        true,
			Version:        "xt-1.1",
		},
		{
			ID:            "animatediff",
			Name:          "AnimateDiff",
			Type:          ModelTypeVideo,
			Provider:      "huggingface",
			Capabilities:  []string{"image-to-video", "animation"},
			OnlineCapable: true,
			Enabled:       true,
			Version:       "1.5",
		},
		// Audio / voice
		{
			ID:             "bark",
			Name:           "Bark Text-to-Speech",
			Type:           ModelTypeAudio,
			Provider:       "suno",
			Capabilities:   []string{"tts", "voice-cloning", "multilingual"},
			Requirements:   ResourceRequirements{MinMemoryBytes: 4 * gib, MinStorageBytes: 5 * gib},
			OnlineCapable:  true,
			OfflineCapable: true,
			Enabled:        true,
			Version:        "1.0",
		},
		{
			ID:             "coqui-tts",
			Name:           "Coqui XTTS",
			Type:           ModelTypeAudio,
			Provider:       "coqui",
			Capabilities:   []string{"tts", "voice-cloning", "real-time"},
			Requirements:   ResourceRequirements{MinMemoryBytes: 2 * gib, MinStorageBytes: 3 * gib},
			OnlineCapable:  true,
			OfflineCapable: true,
			Enabled:        true,
			Version:        "2",
		},
		{
			ID:            "musicgen",
			Name:          "MusicGen",
			Type:          ModelTypeAudio,
			Provider:      "meta",
			Capabilities:  []string{"music-generation"},
			OnlineCapable: true,
			Enabled:       true,
			Version:       "large",
		},
		// Text / code
		{
			ID:             "codellama",
			Name:           "Code Llama",
			Type:           ModelTypeCode,
			Provider:       "meta",
			Capabilities:   []string{"code-generation", "completion"},
			Requirements:   ResourceRequirements{MinMemoryBytes: 6 * gib, MinStorageBytes: 8 * gib},
			OnlineCapable:  true,
			OfflineCapable: true,
			Enabled:        true,
			Version:        "7b",
		},
		{
			ID:            "starcoder",
			Name:          "StarCoder",
			Type:          ModelTypeCode,
			Provider:      "huggingface",
			Capabilities:  []string{"code-generation"},
			OnlineCapable: true,
			Enabled:       true,
			Version:       "2",
		},
	}
}
