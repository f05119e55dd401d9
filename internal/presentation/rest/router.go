package rest

import (
	"log/slog"
	"net/http"

	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/middleware"
)

// RouterConfig selects the middleware wrapped around the API.
type RouterConfig struct {
	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// JWT protects POST /predict when set.
	JWT *auth.JWTService

	CORS middleware.CORSConfig

	// RateLimitRPS of zero disables rate limiting.
	RateLimitRPS int
}

// publicPaths are reachable without a token when auth is on.
var publicPaths = []string{"/", "/health", "/healthz", "/readyz", "/metrics"}

// NewRouter builds the HTTP handler: CORS, then request logging, then rate
// limiting, then optional JWT validation.
func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mws := []func(http.Handler) http.Handler{
		middleware.CORS(cfg.CORS),
		middleware.Logging(logger),
	}
	if cfg.RateLimitRPS > 0 {
		mws = append(mws, middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitRPS)))
	}
	if cfg.JWT != nil {
		mws = append(mws, auth.HTTPMiddleware(cfg.JWT, publicPaths))
	}

	return middleware.Chain(mux, mws...)
}
