package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

func TestShapeParametersVideo(t *testing.T) {
	profile := *balancedProfile()

	shaped := ShapeParameters(profile, 2, domain.ModelTypeVideo, map[string]any{"resolution": 2160})
	assert.Equal(t, 1080, shaped["resolution"]) // capped at the profile
	assert.Equal(t, 30, shaped["fps"])
	assert.Equal(t, true, shaped["hardware_decode"])
	assert.Equal(t, true, shaped["gpu"])

	// A request below the cap keeps its own value.
	shaped = ShapeParameters(profile, 2, domain.ModelTypeVideo, map[string]any{"resolution": 720})
	assert.Equal(t, 720, shaped["resolution"])
}

func TestShapeParametersImage(t *testing.T) {
	shaped := ShapeParameters(*maximumProfile(), 4, domain.ModelTypeImage, nil)
	assert.Equal(t, 1024, shaped["size"])
	assert.Equal(t, 40, shaped["steps"])
	assert.Equal(t, 4, shaped["batch"])

	shaped = ShapeParameters(*conservativeProfile(), 1, domain.ModelTypeImage, nil)
	assert.Equal(t, 512, shaped["size"])
	assert.Equal(t, 20, shaped["steps"])
	assert.Equal(t, false, shaped["gpu"])
}

func TestShapeParametersAudioAndText(t *testing.T) {
	audio := ShapeParameters(*performanceProfile(), 1, domain.ModelTypeAudio, nil)
	assert.Equal(t, 48000, audio["sample_rate"])

	text := ShapeParameters(*balancedProfile(), 1, domain.ModelTypeText, nil)
	assert.Equal(t, 2048, text["max_tokens"])

	code := ShapeParameters(*conservativeProfile(), 1, domain.ModelTypeCode, nil)
	assert.Equal(t, 1024, code["max_tokens"])
}

func TestShapeParametersDoesNotMutateInput(t *testing.T) {
	params := map[string]any{"resolution": 2160, "seed": 7}
	ShapeParameters(*conservativeProfile(), 1, domain.ModelTypeVideo, params)

	assert.Equal(t, 2160, params["resolution"])
	_, hasFPS := params["fps"]
	assert.False(t, hasFPS)
}

func TestComputeQualityTier(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   domain.QualityTier
	}{
		{"nothing met", map[string]any{"size": 512, "steps": 20}, domain.QualityTierDraft},
		{"one threshold", map[string]any{"size": 1024}, domain.QualityTierStandard},
		{"two thresholds", map[string]any{"size": 1024, "gpu": true}, domain.QualityTierHigh},
		{"three thresholds", map[string]any{"size": 1024, "steps": 40, "gpu": true}, domain.QualityTierUltra},
		{"video ultra", map[string]any{"resolution": 2160, "fps": 60, "gpu": true}, domain.QualityTierUltra},
		{"audio standard", map[string]any{"sample_rate": 48000}, domain.QualityTierStandard},
		{"empty params", map[string]any{}, domain.QualityTierDraft},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeQualityTier(tc.params))
		})
	}
}

func TestQualityTierFollowsProfileTier(t *testing.T) {
	// Shaping on a stronger profile never yields a lower tier for the same request.
	conservative := ComputeQualityTier(ShapeParameters(*conservativeProfile(), 1, domain.ModelTypeImage, nil))
	maximum := ComputeQualityTier(ShapeParameters(*maximumProfile(), 4, domain.ModelTypeImage, nil))

	order := map[domain.QualityTier]int{
		domain.QualityTierDraft:    0,
		domain.QualityTierStandard: 1,
		domain.QualityTierHigh:     2,
		domain.QualityTierUltra:    3,
	}
	assert.GreaterOrEqual(t, order[maximum], order[conservative])
}
