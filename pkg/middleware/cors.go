package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// The backend serves a single first-party web client, so the method and
// header lists are fixed rather than configurable.
var (
	corsAllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsAllowHeaders  = []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID", "X-User-ID"}
	corsExposeHeaders = []string{"X-Correlation-ID", "X-User-ID"}
)

const corsMaxAgeSeconds = 3600

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	// AllowedOrigins lists exact origins. An entry of "*" allows everything.
	AllowedOrigins []string

	// AllowCredentials must be true for the auth cookies to travel
	// cross-origin.
	AllowCredentials bool

	// Environment relaxes origin checks: "development" accepts any origin.
	Environment string
}

// DefaultCORSConfig is wide open and meant for development only.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		Environment:    "development",
	}
}

// CORS answers preflight requests and stamps Access-Control headers on every
// response. Unknown origins in production get no Allow-Origin header at all,
// which makes the browser reject the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowAll := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[o] = struct{}{}
	}

	methods := strings.Join(corsAllowMethods, ", ")
	headers := strings.Join(corsAllowHeaders, ", ")
	exposed := strings.Join(corsExposeHeaders, ", ")
	maxAge := strconv.Itoa(corsMaxAgeSeconds)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Expose-Headers", exposed)
			w.Header().Set("Access-Control-Max-Age", maxAge)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
