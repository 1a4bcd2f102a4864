package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

func TestDeviceProfilerMemoryTiers(t *testing.T) {
	profiler := NewDeviceProfiler(testLogger(t))

	tests := []struct {
		name           string
		memoryBytes    int64
		wantProfile    string
		wantConcurrent int
	}{
		{"high memory gets performance", 16 << 30, "performance", 3},
		{"exactly 12 GiB gets performance", 12 << 30, "performance", 3},
		{"mid memory gets balanced", 8 << 30, "balanced", 2},
		{"low memory gets conservative", 4 << 30, "conservative", 1},
		{"zero memory fails soft to conservative", 0, "conservative", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := profiler.Profile(domain.DeviceFacts{Name: "generic device", MemoryBytes: tc.memoryBytes})
			assert.Equal(t, tc.wantProfile, profile.Name)
			assert.Equal(t, tc.wantConcurrent, profile.MaxConcurrent)
		})
	}
}

func TestDeviceProfilerFlagshipOverride(t *testing.T) {
	profiler := NewDeviceProfiler(testLogger(t))

	// The override wins even when the reported memory says conservative.
	profile := profiler.Profile(domain.DeviceFacts{Name: "Apple iPhone 16 Pro", MemoryBytes: 6 << 30})
	assert.Equal(t, "maximum", profile.Name)
	assert.Equal(t, 4, profile.MaxConcurrent)
	assert.True(t, profile.EnableGPUAcceleration)
}

func TestDeviceProfilerDeterministic(t *testing.T) {
	profiler := NewDeviceProfiler(testLogger(t))
	facts := domain.DeviceFacts{Name: "Pixel 9 Pro", MemoryBytes: 12 << 30}

	first := profiler.Profile(facts)
	second := profiler.Profile(facts)
	assert.Equal(t, *first, *second)
}

func TestOptimizationProfileClone(t *testing.T) {
	original := conservativeProfile()
	clone := original.Clone()

	clone.MaxConcurrent = 99
	assert.Equal(t, 1, original.MaxConcurrent)
}
