// Package main is the entrypoint for the usergate API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/penshort/usergate/internal/auth"
	"github.com/penshort/usergate/internal/cache"
	"github.com/penshort/usergate/internal/config"
	"github.com/penshort/usergate/internal/handler"
	"github.com/penshort/usergate/internal/metrics"
	"github.com/penshort/usergate/internal/middleware"
	"github.com/penshort/usergate/internal/model"
	"github.com/penshort/usergate/internal/policy"
	"github.com/penshort/usergate/internal/server"
	"github.com/penshort/usergate/internal/userservice"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Credential cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	credentials := cacheClient.WithPrefix(cfg.CachePrefix)
	logger.Info("connected to Redis")

	if err := seedCredential(ctx, credentials, cfg, logger); err != nil {
		logger.Error("failed to prepare credential cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsRecorder := metrics.NewInMemory()
	users := userservice.New(
		cfg.UsersEndpoint,
		auth.ContextSource{},
		credentials,
		policy.DefaultGate(),
		userservice.WithHTTPClient(userservice.NewHTTPClient(cfg.UpstreamTimeout)),
		userservice.WithMetrics(metricsRecorder),
		userservice.WithLogger(logger),
	)

	r := setupRouter(cfg, users, credentials, cacheClient, metricsRecorder, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"users_endpoint", redactURL(users.Endpoint()),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
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
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// credentialSeeder is the part of the credential cache used at startup.
type credentialSeeder interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
}

// seedCredential stores the configured service credential with no expiry.
// Without one, a credential left by an earlier run is removed so the
// fallback never uses it. Remembered credentials expire on their own and
// are left alone.
func seedCredential(ctx context.Context, store credentialSeeder, cfg *config.Config, logger *slog.Logger) error {
	if cfg.ServiceCredential != "" {
		if err := store.Set(ctx, auth.HeaderAuthorization, cfg.ServiceCredential, 0); err != nil {
			return fmt.Errorf("store service credential: %w", err)
		}
		logger.Info("service credential stored",
			slog.String("credential", auth.Fingerprint(cfg.ServiceCredential)),
		)
		return nil
	}

	if cfg.RememberCredential {
		return nil
	}

	if err := store.Forget(ctx, auth.HeaderAuthorization); err != nil {
		return fmt.Errorf("clear stale credential: %w", err)
	}
	return nil
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	cfg *config.Config,
	users *userservice.Client,
	credentials middleware.CredentialStore,
	health handler.HealthChecker,
	snapshotter metrics.Snapshotter,
	logger *slog.Logger,
) *chi.Mux {
	infoEndpoint := users.Endpoint()
	if cfg.IsProduction() {
		infoEndpoint = ""
	}
	h := handler.New(infoEndpoint)
	healthHandler := handler.NewHealthHandler(health)
	metricsHandler := handler.NewMetricsHandler(snapshotter)
	userHandler := handler.NewUserHandler(users, logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/", h.Info)

	credCfg := middleware.CredentialConfig{Logger: logger, TTL: cfg.CredentialTTL}
	if cfg.RememberCredential {
		credCfg.Store = credentials
	}

	// Metrics are reserved for callers the user service reports as admins.
	r.With(middleware.Credential(credCfg), middleware.RequireAdmin(users)).
		Get("/metrics", metricsHandler.Metrics)

	can := func(ability string, args middleware.ArgsFunc) func(http.Handler) http.Handler {
		return middleware.RequireAbility(users, logger, ability, args)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.Credential(credCfg))

		r.Get("/me", userHandler.Me)
		r.Get("/me/admin", userHandler.Admin)
		r.Get("/me/influencer", userHandler.Influencer)
		r.Post("/authorize", userHandler.Authorize)

		r.Route("/users", func(r chi.Router) {
			r.With(can(model.AbilityListUsers, nil)).Get("/", userHandler.List)
			r.With(can(model.AbilityCreateUser, nil)).Post("/", userHandler.Create)
			r.With(can(model.AbilityViewUser, middleware.URLParams("id"))).Get("/{id}", userHandler.Get)
			r.With(can(model.AbilityUpdateUser, middleware.URLParams("id"))).Put("/{id}", userHandler.Update)
			r.With(can(model.AbilityDeleteUser, middleware.URLParams("id"))).Delete("/{id}", userHandler.Delete)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
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
