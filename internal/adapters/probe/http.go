package probe

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agentstudio/studio-core/internal/core/ports"
)

// HTTPProbe answers connectivity by issuing a HEAD request against a known
// reachability URL. Results are memoized briefly so routing decisions during a
// burst don't hammer the endpoint.
type HTTPProbe struct {
	logger   *slog.Logger
	url      string
	client   *http.Client
	cacheFor time.Duration

	mu        sync.Mutex
	lastCheck time.Time
	lastOK    bool
}

func NewHTTPProbe(logger *slog.Logger, url string) *HTTPProbe {
	if url == "" {
		url = "https://connectivitycheck.gstatic.com/generate_204"
	}
	return &HTTPProbe{
		logger:   logger,
		url:      url,
		client:   &http.Client{Timeout: 3 * time.Second},
		cacheFor: 10 * time.Second,
	}
}

var _ ports.ConnectivityProbe = (*HTTPProbe)(nil)

// Usable reports whether the network currently serves requests.
func (p *HTTPProbe) Usable(ctx context.Context) bool {
	p.mu.Lock()
	if time.Since(p.lastCheck) < p.cacheFor {
		ok := p.lastOK
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	ok := p.check(ctx)

	p.mu.Lock()
	p.lastCheck = time.Now()
	p.lastOK = ok
	p.mu.Unlock()
	return ok
}

func (p *HTTPProbe) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("connectivity check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}
