package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc {
	return func(_ context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func probeBody(t *testing.T, w *httptest.ResponseRecorder) probeResponse {
	t.Helper()
	var body probeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestLivenessAllPassing(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "goroutines", Probe: Liveness, Timeout: time.Second, Func: passing()})
	tr.Register(Check{Name: "disk", Probe: Liveness, Timeout: time.Second, Func: passing()})

	w := httptest.NewRecorder()
	tr.Handler(Liveness)(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", probeBody(t, w).Status)
}

func TestLivenessFailingCheck(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "db", Probe: Liveness, Timeout: time.Second, Func: failing("connection refused")})

	// Checks start passing; drive past the default failure threshold of 3.
	ctx := context.Background()
	m := tr.monitors[0]
	m.observe(ctx)
	m.observe(ctx)
	m.observe(ctx)

	w := httptest.NewRecorder()
	tr.Handler(Liveness)(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := probeBody(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestLivenessFailureBelowThreshold(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "flaky", Probe: Liveness, Timeout: time.Second, Func: failing("temporary")})

	ctx := context.Background()
	tr.monitors[0].observe(ctx)
	tr.monitors[0].observe(ctx)

	w := httptest.NewRecorder()
	tr.Handler(Liveness)(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckRecovery(t *testing.T) {
	down := true
	tr := New()
	tr.Register(Check{Name: "flaky", Probe: Liveness, Timeout: time.Second, Func: func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}})
	m := tr.monitors[0]
	ctx := context.Background()

	m.observe(ctx)
	m.observe(ctx)
	m.observe(ctx)
	require.Error(t, m.failure())

	down = false
	m.observe(ctx)
	assert.NoError(t, m.failure(), "one pass should recover with the default success threshold")
}

func TestCustomThresholds(t *testing.T) {
	tr := New()
	tr.Register(Check{
		Name: "strict", Probe: Liveness, Timeout: time.Second,
		Func:             failing("nope"),
		FailureThreshold: 1,
	})
	tr.monitors[0].observe(context.Background())
	assert.Error(t, tr.monitors[0].failure())
}

func TestReadinessGate(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "db", Probe: Readiness, Timeout: time.Second, Func: passing()})

	assert.False(t, tr.Ready(), "not ready before SetReady")

	w := httptest.NewRecorder()
	tr.Handler(Readiness)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, probeBody(t, w).Checks, "_ready")

	tr.SetReady(true)
	assert.True(t, tr.Ready())

	w = httptest.NewRecorder()
	tr.Handler(Readiness)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Draining: the gate closes again.
	tr.SetReady(false)
	assert.False(t, tr.Ready())
}

func TestReadinessOneFailingCheck(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "db", Probe: Readiness, Timeout: time.Second, Func: passing()})
	tr.Register(Check{Name: "cache", Probe: Readiness, Timeout: time.Second, Func: failing("cache miss")})
	tr.SetReady(true)

	ctx := context.Background()
	tr.monitors[1].observe(ctx)
	tr.monitors[1].observe(ctx)
	tr.monitors[1].observe(ctx)

	assert.False(t, tr.Ready())

	w := httptest.NewRecorder()
	tr.Handler(Readiness)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := probeBody(t, w)
	assert.Contains(t, body.Checks, "cache")
	assert.NotContains(t, body.Checks, "db")
}

func TestProbesAreIndependent(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "leak", Probe: Liveness, Timeout: time.Second, Func: failing("leak")})
	tr.SetReady(true)

	ctx := context.Background()
	tr.monitors[0].observe(ctx)
	tr.monitors[0].observe(ctx)
	tr.monitors[0].observe(ctx)

	// A liveness failure must not show up on the readiness probe.
	w := httptest.NewRecorder()
	tr.Handler(Readiness)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoChecksRegistered(t *testing.T) {
	tr := New()

	w := httptest.NewRecorder()
	tr.Handler(Liveness)(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	tr.SetReady(true)
	w = httptest.NewRecorder()
	tr.Handler(Readiness)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartStop(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "noop", Probe: Liveness, Timeout: time.Second, Func: passing()})

	tr.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	tr.Stop()
	tr.Stop() // idempotent
}

func TestConcurrentAccess(t *testing.T) {
	tr := New()
	tr.Register(Check{Name: "live", Probe: Liveness, Timeout: time.Second, Func: failing("err")})
	tr.Register(Check{Name: "ready", Probe: Readiness, Timeout: time.Second, Func: passing()})
	tr.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.Start(ctx, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tr.Ready()
				w := httptest.NewRecorder()
				tr.Handler(Liveness)(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
				w = httptest.NewRecorder()
				tr.Handler(Readiness)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	tr.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(stubPinger{})(context.Background()))

	err := PingCheck(stubPinger{err: errors.New("refused")})(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}
