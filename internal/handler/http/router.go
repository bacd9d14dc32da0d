package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leogadddd/ordura-v2/internal/domain"
	"github.com/leogadddd/ordura-v2/internal/service"
	"github.com/leogadddd/ordura-v2/pkg/health"
	"github.com/leogadddd/ordura-v2/pkg/httputil"
	"github.com/leogadddd/ordura-v2/pkg/middleware"
)

// productCacheMaxAge is the Cache-Control max-age for product reads, in
// seconds.
const productCacheMaxAge = 30

// RouterConfig bundles the router's cross-cutting settings.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	Cookies     CookieConfig
}

// NewRouter creates a chi router with all backend routes registered.
func NewRouter(
	authService *service.AuthService,
	productService *service.ProductService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Logging runs first so every request, including
	// panics recovered further down, gets a log line with timing.
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Token validator bridging the JWT claims into the middleware's view.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := authService.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
			Role:     claims.Role,
		}, nil
	}
	requireAuth := middleware.Auth(tokenValidator)

	// Auth endpoints
	authHandler := NewAuthHandler(authService, cfg.Cookies, logger)
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)

		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	// Catalog endpoints. Reads are open to any authenticated user; writes
	// need the admin role.
	productHandler := NewProductHandler(productService, logger)
	r.Route("/api/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireAuth)

		r.With(middleware.CacheControl(productCacheMaxAge)).Get("/", productHandler.List)
		r.With(middleware.CacheControl(productCacheMaxAge)).Get("/{id}", productHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/", productHandler.Create)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})
	})

	// Surfaces served by upcoming releases. Registered behind auth so the
	// route space is stable for clients.
	for _, prefix := range []string{"/api/pos", "/api/inventory", "/api/reports", "/api/sync"} {
		r.With(requireAuth).Handle(prefix+"/*", comingSoon())
		r.With(requireAuth).Handle(prefix, comingSoon())
	}

	return r
}

func comingSoon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotImplemented, httputil.Response{
			Status:    httputil.StatusError,
			Message:   "this feature is not available yet",
			Timestamp: time.Now().UTC(),
		})
	}
}
