package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	dErrors "complio/pkg/domain-errors"
	"complio/pkg/platform/httputil"
	"complio/pkg/platform/middleware/accesslog"
	"complio/pkg/requestcontext"
)

// Middleware rejects callers over their limit with 429. It must run after
// authentication so the actor is known. Store failures let the request through.
func Middleware(store Store, limit Limit, logger *slog.Logger, m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "ip:" + accesslog.ClientIP(r)
			if actor := requestcontext.ActorID(ctx); actor != "" {
				key = "actor:" + actor
			}

			result, err := store.Allow(ctx, key, limit)
			if err != nil {
				m.incStoreError()
				logger.ErrorContext(ctx, "rate limit check failed", "error", err, "request_id", requestcontext.RequestID(ctx))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				m.incBlocked()
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
