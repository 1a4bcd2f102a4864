package domain

import "time"

// QualityTier is a coarse classification of output fidelity derived from the
// parameters actually used for generation.
type QualityTier string

const (
	QualityTierDraft    QualityTier = "draft"
	QualityTierStandard QualityTier = "standard"
	QualityTierHigh     QualityTier = "high"
	QualityTierUltra    QualityTier = "ultra"
)

// GenerationResult is the single terminal outcome of a request. Exactly one is
// produced per submitted request, success or failure.
type GenerationResult struct {
	RequestID       string            `json:"request_id"`
	Success         bool              `json:"success"`
	Output          string            `json:"output,omitempty"`
	Error           string            `json:"error,omitempty"`
	ProcessingTime  time.Duration     `json:"processing_time"`
	ModelUsed       string            `json:"model_used"`
	ServedFromCache bool              `json:"served_from_cache"`
	QualityTier     QualityTier       `json:"quality_tier,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
