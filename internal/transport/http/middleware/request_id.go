package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"hrops/internal/platform/requestctx"
	"hrops/internal/transport/http/shared"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id and the caller's IP, both carried
// on the context for handlers and the audit trail.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := requestctx.WithRequestID(r.Context(), id)
		ctx = requestctx.WithClientIP(ctx, shared.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
