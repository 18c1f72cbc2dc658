// Package requestid assigns every request an id for log correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"complio/pkg/requestcontext"
)

const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID or generates one, stores it in the
// request context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
