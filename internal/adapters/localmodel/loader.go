package localmodel

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// Loader activates downloaded model assets as in-process runtimes. The runtime
// here is a placeholder synthesis engine: it validates the asset exists and
// produces a deterministic descriptor of what a real engine would emit. Hosts
// with a real on-device runtime (Core ML, NNAPI, llama.cpp bindings) supply
// their own ports.ModelLoader instead.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

var _ ports.ModelLoader = (*Loader)(nil)

func (l *Loader) Load(ctx context.Context, desc domain.ModelDescriptor, assetPath string) (ports.OfflineModel, error) {
	if _, err := os.Stat(assetPath); err != nil {
		return nil, fmt.Errorf("asset missing for %s: %w", desc.ID, err)
	}
	l.logger.Info("local model activated", "model", desc.ID, "asset", assetPath)
	return &model{desc: desc}, nil
}

type model struct {
	desc domain.ModelDescriptor
}

func (m *model) Infer(ctx context.Context, input string, params map[string]any) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return fmt.Sprintf("%s://local/%s?prompt=%s", m.desc.Type, m.desc.ID, input), nil
}

func (m *model) Close() error { return nil }
