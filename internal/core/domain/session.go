package domain

import (
	"errors"
	"time"
)

// SessionID identifies a realtime session.
type SessionID string

// RealtimeSession pins a low-latency request channel to one model and media type.
// Owned exclusively by the session manager; never persisted.
type RealtimeSession struct {
	ID             SessionID `json:"id"`
	ModelID        string    `json:"model_id"`
	Type           ModelType `json:"type"`
	Active         bool      `json:"active"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

var ErrSessionNotFound = errors.New("session not found")
