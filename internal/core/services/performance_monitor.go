package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// MonitorState describes the concurrency allowance relative to the profile baseline.
type MonitorState string

const (
	MonitorNominal   MonitorState = "nominal"
	MonitorThrottled MonitorState = "throttled"
	MonitorBoosted   MonitorState = "boosted"
)

const sampleWindow = 3

// Monitor runs a periodic sampling loop that tightens or relaxes the concurrency
// allowance derived from the device profile. It is the single writer of the shared
// profile; the dispatcher reads through MaxConcurrent and CanAdmit.
//
// The control loop is deliberately damped: at most one step per tick, and it only
// ever relaxes back toward the baseline, never above it.
type Monitor struct {
	logger  *slog.Logger
	metrics ports.MetricsSource
	tick    time.Duration

	mu        sync.Mutex
	profile   *domain.OptimizationProfile
	baseline  *domain.OptimizationProfile // last-known-good, recovery target
	state     MonitorState
	batchSize int
	last      domain.PerformanceSample
	hasSample bool
	window    []domain.PerformanceSample
}

// NewMonitor creates a monitor operating on the shared profile. The profile is
// mutated in place (concurrency only); baseline keeps an untouched copy.
func NewMonitor(logger *slog.Logger, metrics ports.MetricsSource, profile *domain.OptimizationProfile, tick time.Duration) *Monitor {
	if tick <= 0 {
		tick = 5 * time.Second
	}
	return &Monitor{
		logger:    logger,
		metrics:   metrics,
		tick:      tick,
		profile:   profile,
		baseline:  profile.Clone(),
		state:     MonitorNominal,
		batchSize: 4,
	}
}

// Run starts the sampling loop. Blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("performance monitor started", "tick", m.tick, "baseline_concurrency", m.baseline.MaxConcurrent)
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("performance monitor stopped")
			return nil
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick takes one sample and applies at most one adjustment step. Exposed so tests
// can drive the loop without a timer.
func (m *Monitor) Tick(ctx context.Context) {
	sample, err := m.metrics.Sample(ctx)
	if err != nil {
		// A failed read never crashes the loop; keep the previous state.
		m.logger.Warn("metrics sample failed, skipping tick", "error", err)
		return
	}
	m.apply(sample)
}

func (m *Monitor) apply(sample domain.PerformanceSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = sample
	m.hasSample = true
	m.window = append(m.window, sample)
	if len(m.window) > sampleWindow {
		m.window = m.window[len(m.window)-sampleWindow:]
	}

	switch {
	case sample.Stressed():
		m.state = MonitorThrottled
		if m.profile.MaxConcurrent > 1 {
			m.profile.MaxConcurrent--
		}
		if m.batchSize > 1 {
			m.batchSize--
		}
		m.logger.Info("throttling",
			"cpu", sample.CPUUsage,
			"memory", sample.MemoryUsage,
			"battery", sample.BatteryLevel,
			"thermal", sample.ThermalState,
			"max_concurrent", m.profile.MaxConcurrent,
		)
	case sample.Relaxed() && m.profile.MaxConcurrent < m.baseline.MaxConcurrent:
		m.state = MonitorBoosted
		m.profile.MaxConcurrent++
		if m.batchSize < 4 {
			m.batchSize++
		}
		m.logger.Info("relaxing toward baseline", "max_concurrent", m.profile.MaxConcurrent)
	default:
		m.state = MonitorNominal
	}
}

// MaxConcurrent returns the current concurrency allowance.
func (m *Monitor) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile.MaxConcurrent
}

// BatchSize returns the current internal batch size for parameter shaping.
func (m *Monitor) BatchSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchSize
}

// State returns the current control-loop state.
func (m *Monitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CanAdmit is an additional admission gate checked by the dispatcher on top of
// the concurrency limit. Before the first sample arrives the gate is open.
func (m *Monitor) CanAdmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSample {
		return true
	}
	return m.last.CPUUsage < 80 && m.last.MemoryUsage < 75 && m.last.BatteryLevel > 15
}

// LastSample returns the most recent sample, ok=false before the first tick.
func (m *Monitor) LastSample() (domain.PerformanceSample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasSample
}

// Profile returns a copy of the live profile for parameter shaping.
func (m *Monitor) Profile() domain.OptimizationProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.profile
}

// Baseline returns a copy of the statically computed baseline profile.
func (m *Monitor) Baseline() domain.OptimizationProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.baseline
}
