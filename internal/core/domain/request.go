package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Priority orders requests in the dispatch queue. Higher values are admitted first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityRealtime
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityRealtime:
		return "realtime"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority maps a priority name to its value. Unknown names default to normal.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "realtime":
		return PriorityRealtime
	default:
		return PriorityNormal
	}
}

// GenerationRequest is one user-initiated generation. Immutable once submitted;
// the dispatcher consumes it exactly once.
type GenerationRequest struct {
	ID            string         `json:"id"` // assigned at submit if empty
	ModelID       string         `json:"model_id"`
	Type          ModelType      `json:"type"`
	Prompt        string         `json:"prompt"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Priority      Priority       `json:"priority"`
	PreferOffline bool           `json:"prefer_offline"`
	Cacheable     bool           `json:"cacheable"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

var (
	ErrEmptyModelID = errors.New("request model_id is empty")
	ErrEmptyPrompt  = errors.New("request prompt is empty")
)

// Validate checks request shape. Shape errors fail fast at submit time instead of
// being folded into a terminal result.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.ModelID) == "" {
		return ErrEmptyModelID
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	switch r.Type {
	case ModelTypeVideo, ModelTypeAudio, ModelTypeImage, ModelTypeText, ModelTypeCode:
	default:
		return fmt.Errorf("unknown model type %q", r.Type)
	}
	if r.Priority < PriorityLow || r.Priority > PriorityRealtime {
		return fmt.Errorf("invalid priority %d", r.Priority)
	}
	return nil
}
