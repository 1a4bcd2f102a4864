package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// HostSensors reads battery and thermal state on hosts that expose them.
// Desktop and CI hosts usually don't; absence fails soft to healthy defaults.
type HostSensors interface {
	BatteryLevel() (float64, error)
	ThermalState() (domain.ThermalState, error)
}

// Source is a ports.MetricsSource backed by gopsutil for CPU and memory, plus an
// optional sensor reader for battery/thermal.
type Source struct {
	logger  *slog.Logger
	sensors HostSensors // may be nil
}

func NewSource(logger *slog.Logger, sensors HostSensors) *Source {
	return &Source{logger: logger, sensors: sensors}
}

var _ ports.MetricsSource = (*Source)(nil)

// Sample gathers one live reading. CPU is measured over a short interval for a
// usable gauge rather than an instantaneous spike.
func (s *Source) Sample(ctx context.Context) (domain.PerformanceSample, error) {
	sample := domain.PerformanceSample{
		BatteryLevel: 100,
		ThermalState: domain.ThermalNormal,
	}

	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return sample, fmt.Errorf("read memory stats: %w", err)
	}
	sample.MemoryUsage = v.UsedPercent

	cpuPct, err := cpu.PercentWithContext(ctx, 500*time.Millisecond, false)
	if err != nil {
		return sample, fmt.Errorf("read cpu stats: %w", err)
	}
	if len(cpuPct) > 0 {
		sample.CPUUsage = cpuPct[0]
	}

	if s.sensors != nil {
		if level, err := s.sensors.BatteryLevel(); err == nil {
			sample.BatteryLevel = level
		} else {
			s.logger.Debug("battery read failed, assuming full", "error", err)
		}
		if thermal, err := s.sensors.ThermalState(); err == nil {
			sample.ThermalState = thermal
		} else {
			s.logger.Debug("thermal read failed, assuming normal", "error", err)
		}
	}

	return sample, nil
}
