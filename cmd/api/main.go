// Package main is the entrypoint for the Forkful API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/forkful/forkful/internal/cache"
	"github.com/forkful/forkful/internal/config"
	"github.com/forkful/forkful/internal/handler"
	"github.com/forkful/forkful/internal/metrics"
	"github.com/forkful/forkful/internal/middleware"
	"github.com/forkful/forkful/internal/migrate"
	"github.com/forkful/forkful/internal/repository"
	"github.com/forkful/forkful/internal/server"
	"github.com/forkful/forkful/internal/service"
	"github.com/forkful/forkful/internal/storage"
)

func main() {
	ctx := context.Background()

	// A missing .env file is fine outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := migrate.WaitAndRun(ctx, cfg.DatabaseURL, cfg.DBWaitTimeout, logger); err != nil {
			logger.Error(
				"failed to migrate database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	imageStore := storage.NewImageStore(cfg.UploadDir)

	metricsRecorder := metrics.NewInMemory()
	userService := service.NewUserService(repo, cacheClient, metricsRecorder)
	catalogService := service.NewCatalogService(repo, metricsRecorder)
	recipeService := service.NewRecipeService(repo, imageStore, metricsRecorder)

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	userHandler := handler.NewUserHandler(userService, logger)
	catalogHandler := handler.NewCatalogHandler(catalogService, logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, cfg.BaseURL, cfg.MaxUploadSize, logger)

	r := setupRouter(routerDeps{
		health:  healthHandler,
		metrics: metricsHandler,
		user:    userHandler,
		catalog: catalogHandler,
		recipe:  recipeHandler,
		repo:    repo,
		cache:   cacheClient,
		cfg:     cfg,
		logger:  logger,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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
	switch level {
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

type routerDeps struct {
	health  *handler.HealthHandler
	metrics *handler.MetricsHandler
	user    *handler.UserHandler
	catalog *handler.CatalogHandler
	recipe  *handler.RecipeHandler
	repo    *repository.Repository
	cache   *cache.Cache
	cfg     *config.Config
	logger  *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", handler.Root)

	authCfg := middleware.AuthConfig{
		Logger:     deps.logger,
		Repository: deps.repo,
		Cache:      deps.cache,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:                deps.logger,
		Cache:                 deps.cache,
		UserEnabled:           cfg.RateLimitAPIEnabled,
		UserRequestsPerMinute: 120,
		UserBurst:             30,
		PublicEnabled:         cfg.RateLimitPublicEnabled,
		PublicRPS:             cfg.RateLimitPublicRPS,
		PublicBurst:           cfg.RateLimitPublicBurst,
	}

	bodyLimit := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	// Public user endpoints: IP rate limited, no auth
	r.Route("/api/user", func(r chi.Router) {
		r.With(middleware.RateLimitIP(rateLimitCfg), bodyLimit).Post("/create", deps.user.Create)
		r.With(middleware.RateLimitIP(rateLimitCfg), bodyLimit).Post("/token", deps.user.Token)

		// Self-profile endpoints require a token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RateLimitUser(rateLimitCfg))
			r.Get("/me", deps.user.Me)
			r.With(bodyLimit).Patch("/me", deps.user.UpdateMe)
		})
	})

	// Recipe domain endpoints (require authentication)
	r.Route("/api/recipe", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitUser(rateLimitCfg))

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", deps.catalog.ListTags)
			r.With(bodyLimit).Post("/", deps.catalog.CreateTag)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", deps.catalog.ListIngredients)
			r.With(bodyLimit).Post("/", deps.catalog.CreateIngredient)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", deps.recipe.List)
			r.With(bodyLimit).Post("/", deps.recipe.Create)
			r.Get("/{id}", deps.recipe.Get)
			r.With(bodyLimit).Put("/{id}", deps.recipe.Update)
			r.With(bodyLimit).Patch("/{id}", deps.recipe.Update)
			r.Post("/{id}/upload-image", deps.recipe.UploadImage)
		})
	})

	// Stored recipe images are served from the upload directory.
	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", uploadsFS.ServeHTTP)

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

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
