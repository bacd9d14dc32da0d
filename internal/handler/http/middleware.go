package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/leogadddd/ordura-v2/pkg/httputil"
)

// ContentTypeJSON enforces that requests with a body carry
// Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Status:    httputil.StatusError,
					Message:   "Content-Type must be application/json",
					Timestamp: time.Now().UTC(),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
