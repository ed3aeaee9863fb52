package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Helpers ---

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

var _ Telemetry = noopTelemetry{}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// --- Tests ---

func TestWrap_Order(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mw("outer"), mw("inner"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func TestRecovery(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recovery())

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())
}

func TestRecovery_AbortHandler(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}), Recovery())

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := Wrap(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}), RequestID())

	t.Run("generated", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("reused", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "terminal-3-0042")
		w := serve(h, r)
		assert.Equal(t, "terminal-3-0042", seen)
		assert.Equal(t, "terminal-3-0042", w.Header().Get(RequestIDHeader))
	})

	t.Run("invalid replaced", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, strings.Repeat("x", 129))
		serve(h, r)
		assert.Len(t, seen, 36)
	})

	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestCORS(t *testing.T) {
	h := Wrap(okHandler(), CORS(CORSConfig{
		AllowOrigins:  []string{"https://till.example.com"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        600,
	}))

	t.Run("preflight allowed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/menu", nil)
		r.Header.Set("Origin", "https://TILL.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)

		w := serve(h, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://TILL.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Values("Vary"), "Access-Control-Request-Method")
	})

	t.Run("preflight denied", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/menu", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)

		w := serve(h, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
		r.Header.Set("Origin", "https://till.example.com")

		w := serve(h, r)
		assert.Equal(t, "ok", w.Body.String())
		assert.Equal(t, "https://till.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("wildcard", func(t *testing.T) {
		open := Wrap(okHandler(), CORS(CORSConfig{}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://localhost:9002")

		w := serve(open, r)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard with credentials echoes origin", func(t *testing.T) {
		open := Wrap(okHandler(), CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://localhost:9002")

		w := serve(open, r)
		assert.Equal(t, "http://localhost:9002", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestLoggingChain(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lg := zap.New(core)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tables/{table}/order", func(w http.ResponseWriter, r *http.Request) {
		zctx.From(r.Context()).Info("Handler")
		w.WriteHeader(http.StatusNotFound)
	})

	h := Wrap(mux,
		Recovery(),
		RequestID(),
		InjectLogger(lg),
		Instrument("pos", noopTelemetry{}),
		LogRequests(),
	)

	r := httptest.NewRequest(http.MethodGet, "/api/tables/4/order", nil)
	r.Header.Set(RequestIDHeader, "req-1")
	w := serve(h, r)
	require.Equal(t, http.StatusNotFound, w.Code)

	handler := logs.FilterMessage("Handler").All()
	require.Len(t, handler, 1)
	assert.Equal(t, "req-1", handler[0].ContextMap()["request_id"])

	reqs := logs.FilterMessage("Request").All()
	require.Len(t, reqs, 1)
	assert.Equal(t, zapcore.WarnLevel, reqs[0].Level)
	fields := reqs[0].ContextMap()
	assert.Equal(t, "GET /api/tables/{table}/order", fields["route"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
}
