package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complio/internal/nonconformance/service"
	"complio/internal/platform/config"
	"complio/pkg/platform/middleware/auth"
	"complio/pkg/testutil"
)

func newTestAPI(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	b, cleanup, err := openBackends(context.Background(), cfg, false, reg, log)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	router, err := newAPI(context.Background(), cfg, b, reg, log)
	require.NoError(t, err)
	return router
}

func TestInMemoryWiring(t *testing.T) {
	testutil.Given(t, "a server without database or redis", func(t *testing.T) {
		router := newTestAPI(t, config.Default())

		testutil.When(t, "a case with a linked action is raised and closed", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/nonconformance",
				map[string]any{"case_type": "NC", "title": "Seal failure"}), "qa"))
			require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
			created := testutil.UnmarshalResponse[service.CaseDetails](t, rr)
			id := created.Case.ID

			rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/nonconformance/"+id+"/actions",
				map[string]any{"action_type": "CORRECTIVE", "title": "Replace seal", "link_global_action": true}))
			require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
			action := testutil.UnmarshalResponse[struct {
				ID             string `json:"id"`
				GlobalActionID string `json:"global_action_id"`
			}](t, rr)
			require.NotEmpty(t, action.GlobalActionID)

			rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/nonconformance/"+id+"/actions/"+action.ID,
				map[string]any{"status": "DONE"}))
			require.Equal(t, http.StatusOK, rr.Code)
			rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/nonconformance/"+id+"/close",
				map[string]any{"approved_by": "manager"}))
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			testutil.Then(t, "the linked global action is completed", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/actions/"+action.GlobalActionID))
				require.Equal(t, http.StatusOK, rr.Code)
				ga := testutil.UnmarshalResponse[struct {
					Status string `json:"status"`
				}](t, rr)
				assert.Equal(t, "COMPLETED", ga.Status)
			})
		})

		testutil.When(t, "health is checked", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it reports ok", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
			})
		})
	})
}

func TestJWTWiring(t *testing.T) {
	testutil.Given(t, "a server with a signing key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.JWTSigningKey = "test-signing-key-with-enough-bytes"
		router := newTestAPI(t, cfg)

		testutil.When(t, "a request carries no token", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/permits"))

			testutil.Then(t, "it is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "a request carries a valid token", func(t *testing.T) {
			token, err := auth.IssueToken(cfg.Server.JWTSigningKey, "site.manager", time.Hour)
			require.NoError(t, err)
			req := testutil.NewRequest(t, http.MethodGet, "/permits")
			req.Header.Set("Authorization", "Bearer "+token)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is served", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
			})
		})
	})
}
