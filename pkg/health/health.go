// Package health provides liveness and readiness probe endpoints. Checks run
// on demand when a probe arrives, each capped by its own timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports whether a dependency is healthy. It returns nil when the
// checked component works.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health tracks readiness state and dependency checks for a service.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []check
}

// New creates a Health starting in the not-ready state; call SetReady(true)
// once initialization is done.
func New() *Health {
	return &Health{}
}

// SetReady flips the readiness gate. Flipping it to false makes the ready
// endpoint fail immediately, which is how graceful shutdown drains traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// AddReadinessCheck registers a dependency check run on every readiness
// probe. Each run is bounded by timeout.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check{name: name, timeout: timeout, fn: fn})
}

// LiveEndpoint reports whether the process is alive. It always succeeds:
// if the process can serve this request, it is alive.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyEndpoint reports whether the service can take traffic: the readiness
// gate must be open and every registered check must pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}

	h.mu.RLock()
	checks := make([]check, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	failures := make(map[string]string)
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			failures[c.name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeStatus(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"errors": failures,
		})
		return
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
