package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complio/internal/platform/metrics"
	"complio/internal/ratelimit"
	"complio/pkg/platform/middleware/auth"
	"complio/pkg/platform/middleware/requestid"
	"complio/pkg/requestcontext"
	"complio/pkg/testutil"
)

type whoami struct{}

func (whoami) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestcontext.ActorID(r.Context())))
	})
}

func newTestRouter(checks map[string]HealthCheck) (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth:        auth.HeaderActor,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		HealthCheck: checks,
	}, whoami{}), reg
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router, _ := newTestRouter(map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("degraded", func(t *testing.T) {
		router, _ := newTestRouter(map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestMiddlewareChain(t *testing.T) {
	router, _ := newTestRouter(nil)
	req := testutil.NewRequest(t, http.MethodGet, "/whoami")
	req.Header.Set(auth.ActorHeader, "auditor")
	rr := testutil.DoRequest(router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "auditor", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(requestid.Header))
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)
	testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/whoami"))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `route="/whoami"`))
}

func TestRateLimitAppliesPerActorAndSkipsHealth(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Config{
		Logger:    log,
		Auth:      auth.HeaderActor,
		RateLimit: ratelimit.Middleware(ratelimit.NewInMemory(), ratelimit.Limit{Requests: 1, Window: time.Minute}, log, nil),
	}, whoami{})

	call := func(actor string) int {
		req := testutil.NewRequest(t, http.MethodGet, "/whoami")
		req.Header.Set(auth.ActorHeader, actor)
		return testutil.DoRequest(router, req).Code
	}
	assert.Equal(t, http.StatusOK, call("auditor"))
	assert.Equal(t, http.StatusTooManyRequests, call("auditor"))
	assert.Equal(t, http.StatusOK, call("inspector"))

	for range 3 {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
