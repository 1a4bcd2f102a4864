package domain

// ThermalState is the device thermal condition at sampling time.
type ThermalState string

const (
	ThermalNormal ThermalState = "normal"
	ThermalWarm   ThermalState = "warm"
	ThermalHot    ThermalState = "hot"
)

// PerformanceSample is one point-in-time reading of live system metrics.
// Percentages are 0-100. Superseded on every monitoring tick.
type PerformanceSample struct {
	CPUUsage       float64      `json:"cpu_usage"`
	MemoryUsage    float64      `json:"memory_usage"`
	GPUUsage       float64      `json:"gpu_usage"`
	BatteryLevel   float64      `json:"battery_level"`
	ThermalState   ThermalState `json:"thermal_state"`
	NetworkQuality float64      `json:"network_quality"`
}

// Stressed reports whether this sample should tighten the concurrency allowance.
func (s PerformanceSample) Stressed() bool {
	return s.CPUUsage > 90 || s.MemoryUsage > 85 || s.BatteryLevel < 20 || s.ThermalState == ThermalHot
}

// Relaxed reports whether this sample permits relaxing back toward the baseline.
func (s PerformanceSample) Relaxed() bool {
	return s.CPUUsage < 50 && s.MemoryUsage < 60 && s.BatteryLevel > 50
}
