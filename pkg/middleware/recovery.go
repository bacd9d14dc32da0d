package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// Recovery turns handler panics into 500 responses carrying the standard
// error envelope, logging the stack trace instead of letting the process die.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				writePanicResponse(w, l)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writePanicResponse(w http.ResponseWriter, l *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	body := struct {
		Status    string    `json:"status"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    "error",
		Message:   "an internal error occurred",
		Timestamp: time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Error("encode panic response", slog.String("error", err.Error()))
	}
}
