package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// stubMetrics returns a configurable sample.
type stubMetrics struct {
	mu     sync.Mutex
	sample domain.PerformanceSample
	err    error
}

func newStubMetrics(sample domain.PerformanceSample) *stubMetrics {
	return &stubMetrics{sample: sample}
}

func (s *stubMetrics) Sample(ctx context.Context) (domain.PerformanceSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample, s.err
}

func (s *stubMetrics) set(sample domain.PerformanceSample) {
	s.mu.Lock()
	s.sample = sample
	s.mu.Unlock()
}

func (s *stubMetrics) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// stubProbe answers connectivity with a fixed value.
type stubProbe struct {
	mu     sync.Mutex
	online bool
}

func (p *stubProbe) Usable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *stubProbe) set(online bool) {
	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
}

// stubClient records calls in order, tracks overlap, and can block until released.
type stubClient struct {
	mu        sync.Mutex
	prompts   []string
	active    int
	maxActive int
	delay     time.Duration
	err       error
	started   chan string   // receives prompt when a call begins, if non-nil
	release   chan struct{} // calls wait on this before returning, if non-nil
}

func (c *stubClient) Generate(ctx context.Context, model domain.ModelDescriptor, prompt string, params map[string]any) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.active++
	if c.active > c.maxActive {
		c.maxActive = c.active
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()

	if c.started != nil {
		c.started <- prompt
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if c.err != nil {
		return "", c.err
	}
	return "output:" + prompt, nil
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func (c *stubClient) peakConcurrency() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxActive
}

func (c *stubClient) callOrder() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// stubAssets tracks downloads in memory.
type stubAssets struct {
	mu       sync.Mutex
	paths    map[string]string
	failWith error
}

func newStubAssets() *stubAssets {
	return &stubAssets{paths: make(map[string]string)}
}

func (a *stubAssets) Download(ctx context.Context, modelID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return "", a.failWith
	}
	if path, ok := a.paths[modelID]; ok {
		return path, nil
	}
	path := "/assets/" + modelID + ".bin"
	a.paths[modelID] = path
	return path, nil
}

func (a *stubAssets) Exists(modelID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.paths[modelID]
	return ok
}

func (a *stubAssets) Remove(modelID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.paths, modelID)
	return nil
}

// stubLoader produces stubModel runtimes.
type stubLoader struct {
	loadErr error
}

func (l *stubLoader) Load(ctx context.Context, desc domain.ModelDescriptor, assetPath string) (ports.OfflineModel, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return &stubModel{id: desc.ID}, nil
}

// stubModel is a loaded offline runtime with deterministic output.
type stubModel struct {
	id       string
	inferErr error
	closed   bool
}

func (m *stubModel) Infer(ctx context.Context, input string, params map[string]any) (string, error) {
	if m.inferErr != nil {
		return "", m.inferErr
	}
	return "offline:" + m.id + ":" + input, nil
}

func (m *stubModel) Close() error {
	m.closed = true
	return nil
}

var errStubDown = errors.New("backend unavailable")

// testCatalog is a compact model set covering every routing combination.
func testCatalog() []domain.ModelDescriptor {
	return []domain.ModelDescriptor{
		{
			ID: "sdxl-turbo", Name: "SDXL Turbo", Type: domain.ModelTypeImage, Provider: "stability",
			OnlineCapable: true, OfflineCapable: true, Enabled: true, Version: "1.0",
		},
		{
			ID: "dalle3", Name: "DALL-E 3", Type: domain.ModelTypeImage, Provider: "openai",
			OnlineCapable: true, Enabled: true, Version: "3",
		},
		{
			ID: "bark", Name: "Bark", Type: domain.ModelTypeAudio, Provider: "suno",
			OfflineCapable: true, Enabled: true, Version: "1.0",
		},
		{
			ID: "ghost", Name: "Ghost", Type: domain.ModelTypeText, Provider: "nobody",
			Enabled: true, Version: "0",
		},
	}
}
