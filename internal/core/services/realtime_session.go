package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

// RealtimeSessions pins interactive sessions to one model and media type and
// biases their requests toward the offline engine and away from caching.
type RealtimeSessions struct {
	logger      *slog.Logger
	dispatcher  *Dispatcher
	registry    *ModelRegistry
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[domain.SessionID]*domain.RealtimeSession
	now      func() time.Time
}

func NewRealtimeSessions(logger *slog.Logger, dispatcher *Dispatcher, registry *ModelRegistry, idleTimeout time.Duration) *RealtimeSessions {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &RealtimeSessions{
		logger:      logger,
		dispatcher:  dispatcher,
		registry:    registry,
		idleTimeout: idleTimeout,
		sessions:    make(map[domain.SessionID]*domain.RealtimeSession),
		now:         time.Now,
	}
}

// Start creates a session pinned to the model and type.
func (s *RealtimeSessions) Start(modelID string, mediaType domain.ModelType) (domain.SessionID, error) {
	if _, err := s.registry.Get(modelID); err != nil {
		return "", err
	}

	id := domain.SessionID(uuid.New().String())
	now := s.now()
	session := &domain.RealtimeSession{
		ID:             id,
		ModelID:        modelID,
		Type:           mediaType,
		Active:         true,
		StartedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	s.logger.Info("realtime session started", "session_id", id, "model", modelID, "type", mediaType)
	return id, nil
}

// Process submits one interactive input through the dispatcher at realtime
// priority and waits for its terminal result. Unknown or stopped sessions fail
// with ErrSessionNotFound instead of silently creating a new one.
func (s *RealtimeSessions) Process(ctx context.Context, id domain.SessionID, input string, params map[string]any) (domain.GenerationResult, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok || !session.Active {
		s.mu.Unlock()
		return domain.GenerationResult{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	modelID, mediaType := session.ModelID, session.Type
	s.mu.Unlock()

	req := domain.GenerationRequest{
		ModelID:       modelID,
		Type:          mediaType,
		Prompt:        input,
		Parameters:    params,
		Priority:      domain.PriorityRealtime,
		PreferOffline: true,
		Cacheable:     false,
	}

	resultCh, err := s.dispatcher.Submit(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	select {
	case <-ctx.Done():
		return domain.GenerationResult{}, ctx.Err()
	case result := <-resultCh:
		s.touch(id)
		return result, nil
	}
}

// Stop marks the session inactive and removes it from the active set.
func (s *RealtimeSessions) Stop(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	session.Active = false
	delete(s.sessions, id)
	s.logger.Info("realtime session stopped", "session_id", id)
	return nil
}

// ActiveCount returns the number of live sessions.
func (s *RealtimeSessions) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run reaps idle sessions on a fixed interval. Blocks until ctx is cancelled.
func (s *RealtimeSessions) Run(ctx context.Context) error {
	s.logger.Info("realtime session reaper started", "idle_timeout", s.idleTimeout)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("realtime session reaper stopped")
			return nil
		case <-ticker.C:
			s.reapIdle()
		}
	}
}

func (s *RealtimeSessions) reapIdle() {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.LastActivityAt.Before(cutoff) {
			session.Active = false
			delete(s.sessions, id)
			s.logger.Info("realtime session expired", "session_id", id, "idle_since", session.LastActivityAt)
		}
	}
}

func (s *RealtimeSessions) touch(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		session.LastActivityAt = s.now()
	}
}
