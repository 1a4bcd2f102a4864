package services

import (
	"github.com/agentstudio/studio-core/internal/core/domain"
)

// ShapeParameters adjusts request parameters to the current optimization profile
// before dispatch. One deterministic rule per media type, no randomness. The
// caller's parameters are never mutated; a shaped copy is returned.
func ShapeParameters(profile domain.OptimizationProfile, batchSize int, reqType domain.ModelType, params map[string]any) map[string]any {
	shaped := make(map[string]any, len(params)+4)
	for k, v := range params {
		shaped[k] = v
	}

	switch reqType {
	case domain.ModelTypeVideo:
		shaped["resolution"] = capInt(shaped, "resolution", profile.PreferredResolution)
		shaped["fps"] = fpsFor(profile.MemoryLevel)
		shaped["hardware_decode"] = profile.EnableHardwareDecode
	case domain.ModelTypeImage:
		shaped["size"] = capInt(shaped, "size", profile.PreferredImageSize)
		shaped["steps"] = stepsFor(profile.MemoryLevel)
		shaped["batch"] = batchSize
	case domain.ModelTypeAudio:
		shaped["sample_rate"] = sampleRateFor(profile.MemoryLevel)
	case domain.ModelTypeText, domain.ModelTypeCode:
		shaped["max_tokens"] = tokenBudgetFor(profile.MemoryLevel)
	}

	shaped["gpu"] = profile.EnableGPUAcceleration
	return shaped
}

// ComputeQualityTier classifies the output fidelity from the parameters actually
// used: the more high-quality thresholds met, the higher the tier.
func ComputeQualityTier(params map[string]any) domain.QualityTier {
	met := 0
	if v, ok := numParam(params, "resolution"); ok && v >= 2160 {
		met++
	}
	if v, ok := numParam(params, "fps"); ok && v >= 60 {
		met++
	}
	if v, ok := numParam(params, "size"); ok && v >= 1024 {
		met++
	}
	if v, ok := numParam(params, "steps"); ok && v >= 40 {
		met++
	}
	if v, ok := numParam(params, "sample_rate"); ok && v >= 48000 {
		met++
	}
	if v, ok := numParam(params, "max_tokens"); ok && v >= 4096 {
		met++
	}
	if gpu, ok := params["gpu"].(bool); ok && gpu {
		met++
	}

	switch {
	case met >= 3:
		return domain.QualityTierUltra
	case met == 2:
		return domain.QualityTierHigh
	case met == 1:
		return domain.QualityTierStandard
	default:
		return domain.QualityTierDraft
	}
}

func fpsFor(level domain.MemoryLevel) int {
	switch level {
	case domain.MemoryLevelPerformance, domain.MemoryLevelAggressive:
		return 60
	case domain.MemoryLevelBalanced:
		return 30
	default:
		return 24
	}
}

func stepsFor(level domain.MemoryLevel) int {
	switch level {
	case domain.MemoryLevelPerformance, domain.MemoryLevelAggressive:
		return 40
	case domain.MemoryLevelBalanced:
		return 30
	default:
		return 20
	}
}

func sampleRateFor(level domain.MemoryLevel) int {
	switch level {
	case domain.MemoryLevelPerformance, domain.MemoryLevelAggressive:
		return 48000
	case domain.MemoryLevelBalanced:
		return 44100
	default:
		return 22050
	}
}

func tokenBudgetFor(level domain.MemoryLevel) int {
	switch level {
	case domain.MemoryLevelPerformance, domain.MemoryLevelAggressive:
		return 4096
	case domain.MemoryLevelBalanced:
		return 2048
	default:
		return 1024
	}
}

// capInt returns the requested numeric parameter capped at limit, or limit when
// the parameter is absent or not numeric.
func capInt(params map[string]any, key string, limit int) int {
	if v, ok := numParam(params, key); ok && int(v) < limit {
		return int(v)
	}
	return limit
}

func numParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}
