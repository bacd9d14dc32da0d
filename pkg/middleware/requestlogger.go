package middleware

import (
	"log/slog"
	"net/http"

	"github.com/leogadddd/ordura-v2/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// the correlation id, user id, and active trace identity. Handlers retrieve
// it with logger.FromContext. Mount after RequestLogging and Tracing so both
// identities are present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The auth middleware wins over the X-User-ID header, which is
			// only trusted from internal callers.
			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
