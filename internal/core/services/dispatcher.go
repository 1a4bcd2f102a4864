package services

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// DispatcherConfig bounds the dispatch pipeline.
type DispatcherConfig struct {
	MaxQueueDepth  int           // pending requests beyond this fail fast
	PollInterval   time.Duration // admission loop idle wait
	RequestTimeout time.Duration // per-request execution deadline
}

func (c *DispatcherConfig) applyDefaults() {
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = 128
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 120 * time.Second
	}
}

type pendingRequest struct {
	req    domain.GenerationRequest
	result chan domain.GenerationResult // buffered; receives exactly one terminal result
	seq    uint64
}

// requestQueue is a priority heap: higher priority first, FIFO within a band
// (arrival sequence breaks ties, keeping the ordering stable).
type requestQueue []*pendingRequest

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].req.Priority != q[j].req.Priority {
		return q[i].req.Priority > q[j].req.Priority
	}
	return q[i].seq < q[j].seq
}

func (q requestQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *requestQueue) Push(x any) { *q = append(*q, x.(*pendingRequest)) }

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Dispatcher accepts generation requests, resolves the target model, chooses the
// online or offline path, applies the result cache, and executes queued requests
// with bounded concurrency. All queue and in-flight mutation is funneled through
// a single admission loop plus completion callbacks under one mutex.
type Dispatcher struct {
	logger   *slog.Logger
	registry *ModelRegistry
	cache    *ResultCache
	offline  *OfflineEngine
	monitor  *Monitor
	probe    ports.ConnectivityProbe
	clients  map[string]ports.InferenceClient // key: provider name
	bus      *EventBus
	cfg      DispatcherConfig

	mu       sync.Mutex
	queue    requestQueue
	inFlight int
	seq      uint64
	wake     chan struct{}
}

func NewDispatcher(
	logger *slog.Logger,
	registry *ModelRegistry,
	cache *ResultCache,
	offline *OfflineEngine,
	monitor *Monitor,
	probe ports.ConnectivityProbe,
	clients map[string]ports.InferenceClient,
	bus *EventBus,
	cfg DispatcherConfig,
) *Dispatcher {
	cfg.applyDefaults()
	return &Dispatcher{
		logger:   logger,
		registry: registry,
		cache:    cache,
		offline:  offline,
		monitor:  monitor,
		probe:    probe,
		clients:  clients,
		bus:      bus,
		cfg:      cfg,
		wake:     make(chan struct{}, 1),
	}
}

// Submit accepts a request and returns a channel that receives exactly one
// terminal result. The only synchronous errors are shape errors and queue
// saturation; every accepted request resolves, success or failure, through the
// returned channel.
func (d *Dispatcher) Submit(ctx context.Context, req domain.GenerationRequest) (<-chan domain.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}

	out := make(chan domain.GenerationResult, 1)

	desc, err := d.registry.Get(req.ModelID)
	if err != nil {
		// Unknown model is terminal, not a shape error: the caller gets a
		// resolved failure it can show and retry from.
		out <- d.failure(req, time.Now(), err)
		return out, nil
	}

	// Cache fast path: the only synchronous exit.
	if req.Cacheable {
		fp := Fingerprint(desc, req.Type, req.Prompt, req.Parameters)
		if cached, ok := d.cache.Get(fp); ok {
			cached.RequestID = req.ID
			d.logger.Debug("cache hit", "request_id", req.ID, "model", req.ModelID)
			out <- cached
			return out, nil
		}
	}

	d.mu.Lock()
	if len(d.queue) >= d.cfg.MaxQueueDepth {
		d.mu.Unlock()
		return nil, fmt.Errorf("queue depth %d reached: %w", d.cfg.MaxQueueDepth, domain.ErrQueueSaturated)
	}
	d.seq++
	heap.Push(&d.queue, &pendingRequest{req: req, result: out, seq: d.seq})
	d.mu.Unlock()

	d.bus.publishNow(req.ID, EventTypeQueued, req.Priority.String())
	d.notify()
	return out, nil
}

// Run drives the admission loop until ctx is cancelled. Requests still queued at
// shutdown are resolved as failures so no submission is silently dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started",
		"max_queue_depth", d.cfg.MaxQueueDepth,
		"poll_interval", d.cfg.PollInterval,
		"request_timeout", d.cfg.RequestTimeout,
	)

	timer := time.NewTimer(d.cfg.PollInterval)
	defer timer.Stop()

	for {
		if pr := d.tryAdmit(); pr != nil {
			go d.execute(ctx, pr)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d.cfg.PollInterval)

		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("dispatcher stopped")
			return nil
		case <-d.wake:
		case <-timer.C:
		}
	}
}

// tryAdmit pops the highest-priority request when both admission gates pass:
// a free concurrency slot and the monitor's live-metrics gate.
func (d *Dispatcher) tryAdmit() *pendingRequest {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil
	}
	if d.inFlight >= d.monitor.MaxConcurrent() {
		return nil
	}
	if !d.monitor.CanAdmit() {
		return nil
	}

	pr := heap.Pop(&d.queue).(*pendingRequest)
	d.inFlight++
	return pr
}

type route string

const (
	routeOffline route = "offline"
	routeOnline  route = "online"
)

func (d *Dispatcher) execute(ctx context.Context, pr *pendingRequest) {
	defer d.release()

	req := pr.req
	started := time.Now()
	d.bus.publishNow(req.ID, EventTypeStarted, "")

	desc, err := d.registry.Get(req.ModelID)
	if err != nil {
		d.resolve(pr, d.failure(req, started, err))
		return
	}
	if !desc.Enabled {
		d.resolve(pr, d.failure(req, started, fmt.Errorf("%w: %s", domain.ErrNoRouteAvailable, domain.ErrModelDisabled)))
		return
	}

	chosen, err := d.chooseRoute(ctx, desc, req)
	if err != nil {
		d.resolve(pr, d.failure(req, started, err))
		return
	}

	shaped := ShapeParameters(d.monitor.Profile(), d.monitor.BatchSize(), req.Type, req.Parameters)

	execCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	var output string
	switch chosen {
	case routeOffline:
		output, err = d.offline.Infer(execCtx, desc.ID, req.Prompt, shaped)
	case routeOnline:
		output, err = d.callOnline(execCtx, desc, req.Prompt, shaped)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("request timed out after %s: %w", d.cfg.RequestTimeout, err)
		}
		d.logger.Warn("execution failed",
			"request_id", req.ID,
			"model", desc.ID,
			"route", string(chosen),
			"error", err,
		)
		d.resolve(pr, d.failure(req, started, err))
		return
	}

	result := domain.GenerationResult{
		RequestID:      req.ID,
		Success:        true,
		Output:         output,
		ProcessingTime: time.Since(started),
		ModelUsed:      desc.ID,
		QualityTier:    ComputeQualityTier(shaped),
		Metadata:       map[string]string{"route": string(chosen)},
	}

	if req.Cacheable {
		d.cache.Put(Fingerprint(desc, req.Type, req.Prompt, req.Parameters), result)
	}

	d.logger.Info("request completed",
		"request_id", req.ID,
		"model", desc.ID,
		"route", string(chosen),
		"quality", result.QualityTier,
		"elapsed", result.ProcessingTime,
	)
	d.resolve(pr, result)
}

// chooseRoute applies the routing decision in fixed order: explicit offline
// preference with a loaded model wins; then the online path when the network is
// usable; then offline as a degraded fallback; otherwise no route exists.
func (d *Dispatcher) chooseRoute(ctx context.Context, desc domain.ModelDescriptor, req domain.GenerationRequest) (route, error) {
	if req.PreferOffline && desc.OfflineCapable && d.offline.IsLoaded(desc.ID) {
		return routeOffline, nil
	}
	if desc.OnlineCapable && d.probe.Usable(ctx) {
		return routeOnline, nil
	}
	if desc.OfflineCapable {
		return routeOffline, nil
	}
	return "", fmt.Errorf("model %s: %w", desc.ID, domain.ErrNoRouteAvailable)
}

func (d *Dispatcher) callOnline(ctx context.Context, desc domain.ModelDescriptor, prompt string, params map[string]any) (string, error) {
	client, ok := d.clients[desc.Provider]
	if !ok {
		return "", &domain.ExternalCallError{Provider: desc.Provider, Err: errors.New("no client configured")}
	}
	out, err := client.Generate(ctx, desc, prompt, params)
	if err != nil {
		var external *domain.ExternalCallError
		if errors.As(err, &external) {
			return "", err
		}
		return "", &domain.ExternalCallError{Provider: desc.Provider, Err: err}
	}
	return out, nil
}

func (d *Dispatcher) failure(req domain.GenerationRequest, started time.Time, err error) domain.GenerationResult {
	return domain.GenerationResult{
		RequestID:      req.ID,
		Success:        false,
		Error:          err.Error(),
		ProcessingTime: time.Since(started),
		ModelUsed:      req.ModelID,
	}
}

func (d *Dispatcher) resolve(pr *pendingRequest, result domain.GenerationResult) {
	pr.result <- result
	if result.Success {
		d.bus.publishNow(pr.req.ID, EventTypeCompleted, string(result.QualityTier))
	} else {
		d.bus.publishNow(pr.req.ID, EventTypeFailed, result.Error)
	}
}

func (d *Dispatcher) release() {
	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
	d.notify()
}

// drain fails every still-queued request at shutdown. A request removed from the
// queue without a terminal result would break the dispatch contract.
func (d *Dispatcher) drain() {
	d.mu.Lock()
	pending := make([]*pendingRequest, len(d.queue))
	copy(pending, d.queue)
	d.queue = d.queue[:0]
	d.mu.Unlock()

	for _, pr := range pending {
		d.resolve(pr, d.failure(pr.req, time.Now(), errors.New("dispatcher shutting down")))
	}
}

func (d *Dispatcher) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// QueueLen returns the number of queued (not yet admitted) requests.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// InFlight returns the number of requests currently executing.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// CacheStats exposes result cache effectiveness.
func (d *Dispatcher) CacheStats() CacheStats {
	return d.cache.Stats()
}
