package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, h *Health, kind Kind) (int, string) {
	t.Helper()

	w := httptest.NewRecorder()
	h.Handler(kind).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return w.Code, w.Body.String()
}

func runN(h *Health, kind Kind, n int) {
	for range n {
		for _, s := range h.checks[kind] {
			s.run(context.Background())
		}
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// --- Tests ---

func TestLiveness_Healthy(t *testing.T) {
	h := New()
	h.Register(Liveness, Check{Name: "a", Func: passing})
	h.Register(Liveness, Check{Name: "b", Func: passing})

	code, body := probe(t, h, Liveness)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestLiveness_FailureThreshold(t *testing.T) {
	h := New()
	h.Register(Liveness, Check{Name: "db", Func: failing("connection refused")})

	runN(h, Liveness, 2)
	code, _ := probe(t, h, Liveness)
	assert.Equal(t, http.StatusOK, code, "two failures stay below the default threshold")

	runN(h, Liveness, 1)
	code, body := probe(t, h, Liveness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"db":"connection refused"}}`, body)
}

func TestCheck_Recovers(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	h := New()
	h.Register(Liveness, Check{
		Name:             "flaky",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Func: func(context.Context) error {
			if fail.Load() {
				return errors.New("down")
			}
			return nil
		},
	})

	runN(h, Liveness, 1)
	assert.Contains(t, h.Failures(Liveness), "flaky")

	fail.Store(false)
	runN(h, Liveness, 1)
	assert.Contains(t, h.Failures(Liveness), "flaky", "one success is below the threshold")

	runN(h, Liveness, 1)
	assert.Empty(t, h.Failures(Liveness))
}

func TestReadiness(t *testing.T) {
	h := New()
	h.Register(Readiness, Check{Name: "postgres", Func: passing})

	code, body := probe(t, h, Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, body)
	assert.False(t, h.IsReady())

	h.SetReady(true)
	code, _ = probe(t, h, Readiness)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestReadiness_IgnoresLivenessChecks(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.Register(Liveness, Check{Name: "dead", Func: failing("x"), FailureThreshold: 1})
	runN(h, Liveness, 1)

	assert.True(t, h.IsReady())
	code, _ := probe(t, h, Liveness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCheck_Timeout(t *testing.T) {
	h := New()
	h.Register(Readiness, Check{
		Name:             "slow",
		Timeout:          10 * time.Millisecond,
		FailureThreshold: 1,
		Func: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	h.SetReady(true)

	runN(h, Readiness, 1)
	assert.Equal(t, context.DeadlineExceeded.Error(), h.Failures(Readiness)["slow"])
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.Register(Readiness, Check{Name: "counter", Func: func(context.Context) error {
		calls.Add(1)
		return nil
	}})

	h.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
	time.Sleep(20 * time.Millisecond)
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestPingCheck(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("refused") })

	assert.NoError(t, PingCheck(ok)(context.Background()))
	assert.EqualError(t, PingCheck(down)(context.Background()), "refused")
}

func TestDirWritableCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, DirWritableCheck(dir)(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")

	assert.Error(t, DirWritableCheck(filepath.Join(dir, "missing"))(context.Background()))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "liveness", Liveness.String())
	assert.Equal(t, "readiness", Readiness.String())
}
