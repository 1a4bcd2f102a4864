package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRouteAvailable means neither an online nor an offline path exists for
	// the request (model disabled, unloaded, or no connectivity).
	ErrNoRouteAvailable = errors.New("no route available")

	// ErrQueueSaturated means the dispatch queue hit its configured depth bound.
	ErrQueueSaturated = errors.New("dispatch queue saturated")
)

// ModelNotLoadedError is returned when offline inference is attempted before the
// model has been loaded. Retryable after a successful load.
type ModelNotLoadedError struct {
	ModelID string
}

func (e *ModelNotLoadedError) Error() string {
	return fmt.Sprintf("model %s is not loaded", e.ModelID)
}

// InferenceError wraps a failure from a loaded offline model. The model stays
// registered and loaded; callers may retry.
type InferenceError struct {
	ModelID string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed on model %s: %v", e.ModelID, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// ExternalCallError wraps a failed or timed-out online provider call. Terminal for
// the request; the dispatcher performs no automatic retry.
type ExternalCallError struct {
	Provider string
	Err      error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external call to %s failed: %v", e.Provider, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }
