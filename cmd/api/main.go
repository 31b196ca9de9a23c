// Package main is the entrypoint for the Todo API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/cache"
	"github.com/lukeybeachboy/todo-api/internal/config"
	"github.com/lukeybeachboy/todo-api/internal/handler"
	"github.com/lukeybeachboy/todo-api/internal/metrics"
	"github.com/lukeybeachboy/todo-api/internal/middleware"
	"github.com/lukeybeachboy/todo-api/internal/repository"
	"github.com/lukeybeachboy/todo-api/internal/repository/memory"
	"github.com/lukeybeachboy/todo-api/internal/repository/mongodb"
	"github.com/lukeybeachboy/todo-api/internal/repository/postgres"
	"github.com/lukeybeachboy/todo-api/internal/server"
	"github.com/lukeybeachboy/todo-api/internal/service"
	"github.com/lukeybeachboy/todo-api/migrations"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize document store
	store, err := openStore(ctx, cfg)
	if err != nil {
		secret := storeURL(cfg)
		logger.Error(
			"failed to connect to store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, secret)),
			slog.String("url", redactURL(secret)),
		)
		return fmt.Errorf("open %s store", cfg.StoreDriver)
	}
	logger.Info("connected to store", "driver", cfg.StoreDriver)

	// Initialize cache (optional)
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cache.Options{
			URL:      cfg.RedisURL,
			PoolSize: cfg.RedisPoolSize,
			TokenTTL: tokenCacheTTL(cfg),
		})
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = store.Close(ctx)
			return fmt.Errorf("connect to redis")
		}
		logger.Info("connected to Redis")
	} else {
		logger.Info("REDIS_URL not set, token cache and rate limiting disabled")
	}

	// Initialize metrics
	var recorder metrics.Recorder = metrics.NewNoop()
	var prom *metrics.PrometheusRecorder
	if cfg.MetricsEnabled {
		prom = metrics.NewPrometheus()
		recorder = prom
	}

	// Initialize services
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	todoService := service.NewTodoService(store, recorder)

	routerCfg := handler.RouterConfig{
		Logger:            logger,
		Recorder:          recorder,
		Todos:             todoService,
		StoreName:         cfg.StoreDriver,
		Store:             store,
		RateLimitEnabled:  cfg.RateLimitAuthEnabled,
		RateLimitRPS:      cfg.RateLimitAuthRPS,
		RateLimitBurst:    cfg.RateLimitAuthBurst,
		TodosRequireAuth:  cfg.TodosRequireAuth,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		CORS:              corsConfig(cfg),
		MaxBodySize:       cfg.MaxRequestBodySize,
		IsDevelopment:     cfg.IsDevelopment(),
	}
	if cacheClient != nil {
		routerCfg.Users = service.NewUserService(store, issuer, cacheClient, recorder, logger)
		routerCfg.Cache = cacheClient
		routerCfg.Limiter = cacheClient
	} else {
		routerCfg.Users = service.NewUserService(store, issuer, nil, recorder, logger)
	}
	if prom != nil {
		routerCfg.Metrics = prom.Handler()
	}

	r := handler.NewRouter(routerCfg)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, closed last.
	srv.OnShutdown(cfg.StoreDriver, store.Close)
	if cacheClient != nil {
		srv.OnShutdown("redis", cacheClient.Close)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"todos_require_auth", cfg.TodosRequireAuth,
	)

	return srv.Run(ctx)
}

// openStore connects the configured document store backend.
// The postgres backend is migrated to the latest schema first.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StorePostgres:
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.StoreMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func storeURL(cfg *config.Config) string {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return cfg.MongoURI
	case config.StorePostgres:
		return cfg.DatabaseURL
	default:
		return ""
	}
}

// tokenCacheTTL keeps cached resolutions from outliving the token itself.
func tokenCacheTTL(cfg *config.Config) time.Duration {
	if cfg.TokenTTL > 0 && cfg.TokenTTL < cfg.TokenCacheTTL {
		return cfg.TokenTTL
	}
	return cfg.TokenCacheTTL
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
