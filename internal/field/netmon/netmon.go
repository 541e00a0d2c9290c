// Package netmon tracks whether the field device is online. Two
// independent signals are combined: the platform's link state and an
// actual internet reachability probe. Both must pass; either one
// failing flips the monitor offline.
package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LinkSignal reports the platform's link-layer state. On devices
// without a usable signal, inject func() bool { return true } and let
// the probe decide alone.
type LinkSignal func() bool

// Prober checks real internet reachability.
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProber probes by issuing a HEAD request to a fixed URL.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber builds a prober against url.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{url: url, client: &http.Client{Timeout: timeout}}
}

// Probe reports whether the probe URL answered at all. Any HTTP status
// counts as reachable; only transport failures count against.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Monitor holds the combined online state and fires a callback on the
// offline-to-online transition. The callback runs in its own goroutine
// so a slow drain never blocks state tracking.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	observed bool

	link     LinkSignal
	prober   Prober
	onOnline func()
	logger   *zap.Logger
}

// NewMonitor builds a monitor. onOnline fires on each transition to
// online; it is never fired for the initial observation, so a device
// that cold-starts online does not drain until connectivity actually
// changes or the caller drains explicitly.
func NewMonitor(link LinkSignal, prober Prober, onOnline func(), logger *zap.Logger) *Monitor {
	return &Monitor{link: link, prober: prober, onOnline: onOnline, logger: logger}
}

// Online reports the last observed combined state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observed && m.online
}

// Check evaluates both signals once and records the result, firing the
// transition callback when the device came back online. Returns the
// new combined state.
func (m *Monitor) Check(ctx context.Context) bool {
	current := m.link() && m.prober.Probe(ctx)

	m.mu.Lock()
	wasObserved := m.observed
	wasOnline := m.online
	m.observed = true
	m.online = current
	m.mu.Unlock()

	if !wasObserved {
		m.logger.Info("connectivity baseline", zap.Bool("online", current))
		return current
	}

	if current != wasOnline {
		m.logger.Info("connectivity changed", zap.Bool("online", current))
		if current && m.onOnline != nil {
			go m.onOnline()
		}
	}
	return current
}

// Run polls both signals at the given interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
