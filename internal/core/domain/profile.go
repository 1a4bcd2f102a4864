package domain

// MemoryLevel controls how aggressively the app reclaims memory around generations.
type MemoryLevel string

const (
	MemoryLevelConservative MemoryLevel = "conservative"
	MemoryLevelBalanced     MemoryLevel = "balanced"
	MemoryLevelAggressive   MemoryLevel = "aggressive"
	MemoryLevelPerformance  MemoryLevel = "performance"
)

// DeviceFacts are the static inputs to device profiling.
type DeviceFacts struct {
	Name        string `json:"name"`
	MemoryBytes int64  `json:"memory_bytes"`
}

// OptimizationProfile is derived once at startup from device facts; the monitor
// adjusts MaxConcurrent at runtime, never above the statically computed baseline.
type OptimizationProfile struct {
	Name                  string      `json:"name"`
	MaxConcurrent         int         `json:"max_concurrent"`
	PreferredResolution   int         `json:"preferred_resolution"` // video height: 2160, 1080, 720
	PreferredImageSize    int         `json:"preferred_image_size"` // square edge: 1024, 768, 512
	EnableGPUAcceleration bool        `json:"enable_gpu_acceleration"`
	EnableHardwareDecode  bool        `json:"enable_hardware_decode"`
	MemoryLevel           MemoryLevel `json:"memory_level"`
	ThermalManagement     bool        `json:"thermal_management"`
	BatteryOptimization   bool        `json:"battery_optimization"`
}

// Clone returns an independent copy, used to keep a last-known-good baseline aside.
func (p *OptimizationProfile) Clone() *OptimizationProfile {
	cp := *p
	return &cp
}
