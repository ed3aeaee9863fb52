// Package health serves liveness and readiness probes.
//
// Every registered check runs periodically in its own goroutine. A check
// flips to unhealthy only after FailureThreshold consecutive failures and
// back after SuccessThreshold consecutive successes, so a single slow
// dependency round-trip does not take the pod out of rotation.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// Kind selects the probe a check contributes to.
type Kind uint8

const (
	// Liveness checks tell whether the process should be restarted.
	Liveness Kind = iota
	// Readiness checks tell whether the process should receive traffic.
	Readiness
)

func (k Kind) String() string {
	if k == Readiness {
		return "readiness"
	}
	return "liveness"
}

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Check describes a registered check. Zero thresholds default to 3 failures
// and 1 success; a zero timeout defaults to one second.
type Check struct {
	Name             string
	Timeout          time.Duration
	Func             CheckFunc
	FailureThreshold int
	SuccessThreshold int
}

// state is the runtime state of a check. run is only called from the check's
// own goroutine (or a test), so the streak counters need no locking; healthy
// and lastErr are read by handlers concurrently.
type state struct {
	Check

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (s *state) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	err := s.Func(ctx)
	s.lastErr.Store(&err)

	if err != nil {
		s.oks = 0
		s.fails++
		if s.fails >= s.FailureThreshold {
			s.healthy.Store(false)
		}
		return
	}
	s.fails = 0
	s.oks++
	if s.oks >= s.SuccessThreshold {
		s.healthy.Store(true)
	}
}

func (s *state) failure() string {
	if p := s.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error()
	}
	return "check is unhealthy"
}

// Health aggregates checks and the manual readiness flag.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks [2][]*state
	cancel context.CancelFunc
}

// New creates a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Register adds a check to the probe of the given kind. Checks start healthy.
func (h *Health) Register(kind Kind, c Check) {
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	s := &state{Check: c}
	s.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[kind] = append(h.checks[kind], s)
}

// Start runs every registered check immediately and then every interval
// until ctx is done or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	all := slices.Concat(h.checks[Liveness], h.checks[Readiness])
	h.mu.Unlock()

	for _, s := range all {
		go loop(ctx, s, interval)
	}
}

func loop(ctx context.Context, s *state, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// Stop cancels the check goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness flag, typically false while draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	return len(h.Failures(Readiness)) == 0
}

// Failures returns the failing checks of a probe keyed by name. Readiness
// also reports the manual flag under "_readiness".
func (h *Health) Failures(kind Kind) map[string]string {
	h.mu.RLock()
	checks := slices.Clone(h.checks[kind])
	h.mu.RUnlock()

	out := make(map[string]string)
	for _, s := range checks {
		if !s.healthy.Load() {
			out[s.Name] = s.failure()
		}
	}
	if kind == Readiness && !h.ready.Load() {
		out["_readiness"] = "service is not ready"
	}
	return out
}

// Handler serves the probe of the given kind: 200 {"status":"ok"} or 503
// {"status":"unhealthy","checks":{...}}.
func (h *Health) Handler(kind Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		failures := h.Failures(kind)

		status := http.StatusOK
		if len(failures) > 0 {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(encodeStatus(failures))
	})
}

func encodeStatus(failures map[string]string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		if len(failures) == 0 {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			return
		}
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				names := make([]string, 0, len(failures))
				for name := range failures {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failures[name]) })
				}
			})
		})
	})
	return e.Bytes()
}
