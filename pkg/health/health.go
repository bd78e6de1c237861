// Package health implements liveness and readiness probes for the API server.
//
// Every registered check runs on its own ticker goroutine. A check flips to
// failing only after FailureThreshold consecutive errors and recovers after
// SuccessThreshold consecutive passes, so a single slow database ping does not
// take the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Probe distinguishes the two endpoint kinds.
type Probe int

const (
	// Liveness answers "is the process functional". Failing it usually means
	// the orchestrator should restart the container.
	Liveness Probe = iota
	// Readiness answers "can the process take traffic right now". Failing it
	// removes the pod from load balancing without restarting it.
	Readiness
)

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Check describes one registered probe check.
type Check struct {
	Name    string
	Probe   Probe
	Timeout time.Duration
	Func    CheckFunc

	// FailureThreshold and SuccessThreshold default to 3 and 1 when zero.
	FailureThreshold int
	SuccessThreshold int
}

// monitor is the runtime state behind a Check. The counters are touched only
// by the single loop goroutine; passing and lastErr are shared with the HTTP
// handlers and use atomics.
type monitor struct {
	check   Check
	passing atomic.Bool
	lastErr atomic.Pointer[error]

	fails  int
	passes int
}

func (m *monitor) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.check.Timeout)
	defer cancel()

	err := m.check.Func(ctx)
	m.lastErr.Store(&err)

	if err != nil {
		m.passes = 0
		m.fails++
		if m.fails >= m.check.FailureThreshold {
			m.passing.Store(false)
		}
		return
	}
	m.fails = 0
	m.passes++
	if m.passes >= m.check.SuccessThreshold {
		m.passing.Store(true)
	}
}

func (m *monitor) failure() error {
	if m.passing.Load() {
		return nil
	}
	if p := m.lastErr.Load(); p != nil && *p != nil {
		return *p
	}
	return errUnhealthy
}

var errUnhealthy = errorString("check is failing")

type errorString string

func (e errorString) Error() string { return string(e) }

// Tracker owns the registered checks and the ready flag.
type Tracker struct {
	ready atomic.Bool

	mu       sync.RWMutex
	monitors []*monitor
	cancel   context.CancelFunc
}

// New returns a Tracker in the not-ready state. Call SetReady(true) once the
// server has finished wiring its dependencies.
func New() *Tracker {
	return &Tracker{}
}

// Register adds a check. Register before Start; checks added later only begin
// running on the next Start.
func (t *Tracker) Register(c Check) {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	m := &monitor{check: c}
	m.passing.Store(true)

	t.mu.Lock()
	t.monitors = append(t.monitors, m)
	t.mu.Unlock()
}

// Start launches one goroutine per registered check, each ticking at interval.
func (t *Tracker) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancel = cancel
	monitors := make([]*monitor, len(t.monitors))
	copy(monitors, t.monitors)
	t.mu.Unlock()

	for _, m := range monitors {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			m.observe(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.observe(ctx)
				}
			}
		}()
	}
}

// Stop cancels the check goroutines. Safe to call more than once.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Flip it off first during graceful
// shutdown so the load balancer drains the instance before connections close.
func (t *Tracker) SetReady(ready bool) {
	t.ready.Store(ready)
}

// Ready reports whether the gate is open and every readiness check passes.
func (t *Tracker) Ready() bool {
	if !t.ready.Load() {
		return false
	}
	for _, m := range t.snapshot(Readiness) {
		if m.failure() != nil {
			return false
		}
	}
	return true
}

func (t *Tracker) snapshot(probe Probe) []*monitor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*monitor, 0, len(t.monitors))
	for _, m := range t.monitors {
		if m.check.Probe == probe {
			out = append(out, m)
		}
	}
	return out
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an http.HandlerFunc serving the given probe. It answers 200
// with {"status":"ok"} when healthy and 503 with per-check failure messages
// otherwise. The readiness probe additionally requires SetReady(true).
func (t *Tracker) Handler(probe Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		failures := make(map[string]string)
		for _, m := range t.snapshot(probe) {
			if err := m.failure(); err != nil {
				failures[m.check.Name] = err.Error()
			}
		}
		if probe == Readiness && !t.ready.Load() {
			failures["_ready"] = "service is not ready"
		}

		resp := probeResponse{Status: "ok"}
		code := http.StatusOK
		if len(failures) > 0 {
			resp.Status = "unhealthy"
			resp.Checks = failures
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
