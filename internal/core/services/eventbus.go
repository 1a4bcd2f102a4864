package services

import (
	"log/slog"
	"sync"
	"time"
)

// EventType tags dispatch telemetry events.
type EventType string

const (
	EventTypeQueued    EventType = "queued"
	EventTypeStarted   EventType = "started"
	EventTypeCompleted EventType = "completed"
	EventTypeFailed    EventType = "failed"
)

// Event is one lifecycle notification for a request.
type Event struct {
	RequestID string
	Type      EventType
	Detail    string // route taken, error text, or empty
	Timestamp int64
}

// EventBus fans dispatch lifecycle events out to per-request subscribers. The UI
// layer subscribes to show progress; publishing never blocks the dispatcher.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event // key: request ID
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel receiving events for one request and an
// unsubscribe function that closes it.
func (b *EventBus) Subscribe(requestID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	b.subs[requestID] = append(b.subs[requestID], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[requestID]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[requestID] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[requestID]) == 0 {
			delete(b.subs, requestID)
		}
	}

	return ch, unsub
}

// Publish sends an event to all subscribers of the request. Full subscriber
// channels drop the event rather than stall dispatch.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers, ok := b.subs[e.RequestID]
	if !ok {
		return
	}
	for _, ch := range subscribers {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event subscriber full, dropping event", "request_id", e.RequestID, "type", e.Type)
		}
	}
}

func (b *EventBus) publishNow(requestID string, t EventType, detail string) {
	b.Publish(Event{RequestID: requestID, Type: t, Detail: detail, Timestamp: time.Now().Unix()})
}
