package services

import (
	"log/slog"
	"strings"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

// Memory thresholds for profile tiers.
const (
	performanceTierMemory = 12 << 30 // 12 GiB
	balancedTierMemory    = 8 << 30  // 8 GiB
)

// flagshipDevices maps known high-end device identifiers to the maximum tier.
// Some vendors under-report usable memory, so the name override wins over the
// memory thresholds.
var flagshipDevices = []string{
	"iphone 15 pro",
	"iphone 16 pro",
	"ipad pro",
	"galaxy s23 ultra",
	"galaxy s24 ultra",
	"pixel 8 pro",
	"pixel 9 pro",
	"rog phone",
}

// DeviceProfiler derives an optimization profile from static device facts.
// Deterministic and side-effect free; persistence of the result is the caller's
// concern (see ports.ProfileStore).
type DeviceProfiler struct {
	logger *slog.Logger
}

func NewDeviceProfiler(logger *slog.Logger) *DeviceProfiler {
	return &DeviceProfiler{logger: logger}
}

// Profile computes the optimization profile for the device. Unknown or missing
// memory fails soft into the conservative tier; this never errors.
func (p *DeviceProfiler) Profile(facts domain.DeviceFacts) *domain.OptimizationProfile {
	name := strings.ToLower(strings.TrimSpace(facts.Name))

	for _, known := range flagshipDevices {
		if strings.Contains(name, known) {
			p.logger.Info("device matched flagship override", "device", facts.Name)
			return maximumProfile()
		}
	}

	switch {
	case facts.MemoryBytes >= performanceTierMemory:
		p.logger.Info("device profiled", "device", facts.Name, "tier", "performance")
		return performanceProfile()
	case facts.MemoryBytes >= balancedTierMemory:
		p.logger.Info("device profiled", "device", facts.Name, "tier", "balanced")
		return balancedProfile()
	default:
		p.logger.Info("device profiled", "device", facts.Name, "tier", "conservative")
		return conservativeProfile()
	}
}

func maximumProfile() *domain.OptimizationProfile {
	return &domain.OptimizationProfile{
		Name:                  "maximum",
		MaxConcurrent:         4,
		PreferredResolution:   2160,
		PreferredImageSize:    1024,
		EnableGPUAcceleration: true,
		EnableHardwareDecode:  true,
		MemoryLevel:           domain.MemoryLevelPerformance,
		ThermalManagement:     true,
		BatteryOptimization:   false,
	}
}

func performanceProfile() *domain.OptimizationProfile {
	return &domain.OptimizationProfile{
		Name:                  "performance",
		MaxConcurrent:         3,
		PreferredResolution:   2160,
		PreferredImageSize:    1024,
		EnableGPUAcceleration: true,
		EnableHardwareDecode:  true,
		MemoryLevel:           domain.MemoryLevelPerformance,
		ThermalManagement:     true,
		BatteryOptimization:   false,
	}
}

func balancedProfile() *domain.OptimizationProfile {
	return &domain.OptimizationProfile{
		Name:                  "balanced",
		MaxConcurrent:         2,
		PreferredResolution:   1080,
		PreferredImageSize:    768,
		EnableGPUAcceleration: true,
		EnableHardwareDecode:  true,
		MemoryLevel:           domain.MemoryLevelBalanced,
		ThermalManagement:     true,
		BatteryOptimization:   true,
	}
}

func conservativeProfile() *domain.OptimizationProfile {
	return &domain.OptimizationProfile{
		Name:                  "conservative",
		MaxConcurrent:         1,
		PreferredResolution:   720,
		PreferredImageSize:    512,
		EnableGPUAcceleration: false,
		EnableHardwareDecode:  true,
		MemoryLevel:           domain.MemoryLevelConservative,
		ThermalManagement:     true,
		BatteryOptimization:   true,
	}
}
