package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lukeybeachboy/todo-api/internal/metrics"
	"github.com/lukeybeachboy/todo-api/internal/middleware"
	"github.com/lukeybeachboy/todo-api/internal/service"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder

	Todos *service.TodoService
	Users *service.UserService

	// StoreName labels the store in readiness output.
	StoreName string
	Store     HealthChecker
	Cache     HealthChecker

	// Limiter backs the credential endpoint rate limit. Nil disables it.
	Limiter          middleware.IPRateLimiter
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// TodosRequireAuth puts /todos behind the auth middleware and scopes
	// every todo operation to the caller.
	TodosRequireAuth bool

	// TrustProxyHeaders derives the client IP from forwarding headers.
	TrustProxyHeaders bool

	CORS          middleware.CORSConfig
	MaxBodySize   int64
	IsDevelopment bool

	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	h := New()
	healthHandler := NewHealthHandler(cfg.StoreName, cfg.Store, cfg.Cache)
	todoHandler := NewTodoHandler(cfg.Todos, logger, cfg.TodosRequireAuth)
	userHandler := NewUserHandler(cfg.Users, logger)

	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, recorder))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Get("/", h.Hello)

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:   logger,
		Resolver: cfg.Users,
	})

	rateLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: cfg.Limiter,
		Enabled: cfg.RateLimitEnabled,
		Bucket:  "credentials",
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	})

	r.Route("/todos", func(r chi.Router) {
		if cfg.TodosRequireAuth {
			r.Use(requireAuth)
		}
		r.Post("/", todoHandler.Create)
		r.Get("/", todoHandler.List)
		r.Get("/{id}", todoHandler.Get)
		r.Patch("/{id}", todoHandler.Update)
		r.Delete("/{id}", todoHandler.Delete)
	})

	r.Route("/users", func(r chi.Router) {
		r.With(rateLimit).Post("/", userHandler.Create)
		r.With(rateLimit).Post("/login", userHandler.Login)
		r.With(requireAuth).Get("/me", userHandler.Me)
		r.With(requireAuth).Delete("/me/token", userHandler.Logout)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
