package services

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

// ModelRegistry holds the injected model catalog. Descriptors are immutable after
// construction; only the per-model Enabled flag is user-toggleable.
type ModelRegistry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	models  map[string]domain.ModelDescriptor
	ordered []string // IDs sorted for stable listings
}

// NewModelRegistry builds the registry from the given descriptors. Duplicate IDs
// are rejected; identity is the model ID.
func NewModelRegistry(logger *slog.Logger, descriptors []domain.ModelDescriptor) (*ModelRegistry, error) {
	r := &ModelRegistry{
		logger: logger,
		models: make(map[string]domain.ModelDescriptor, len(descriptors)),
	}
	for _, desc := range descriptors {
		if _, exists := r.models[desc.ID]; exists {
			return nil, fmt.Errorf("duplicate model id %q", desc.ID)
		}
		r.models[desc.ID] = desc
		r.ordered = append(r.ordered, desc.ID)
	}
	sort.Strings(r.ordered)
	logger.Info("model registry initialized", "models", len(r.models))
	return r, nil
}

// Get returns the descriptor for the model ID.
func (r *ModelRegistry) Get(id string) (domain.ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.models[id]
	if !ok {
		return domain.ModelDescriptor{}, fmt.Errorf("model %q: %w", id, domain.ErrModelNotFound)
	}
	return desc, nil
}

// List returns all models, optionally filtered by type, sorted by ID.
func (r *ModelRegistry) List(filter ...domain.ModelType) []domain.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ModelDescriptor, 0, len(r.ordered))
	for _, id := range r.ordered {
		desc := r.models[id]
		if len(filter) > 0 && desc.Type != filter[0] {
			continue
		}
		out = append(out, desc)
	}
	return out
}

// SetEnabled toggles a model on or off for routing.
func (r *ModelRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.models[id]
	if !ok {
		return fmt.Errorf("model %q: %w", id, domain.ErrModelNotFound)
	}
	desc.Enabled = enabled
	r.models[id] = desc
	r.logger.Info("model toggled", "model", id, "enabled", enabled)
	return nil
}
