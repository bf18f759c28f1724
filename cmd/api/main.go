// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"

	"github.com/carterperez-dev/journal/internal/admin"
	"github.com/carterperez-dev/journal/internal/analysis"
	"github.com/carterperez-dev/journal/internal/auth"
	"github.com/carterperez-dev/journal/internal/billing"
	"github.com/carterperez-dev/journal/internal/config"
	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/entry"
	"github.com/carterperez-dev/journal/internal/health"
	"github.com/carterperez-dev/journal/internal/llm"
	"github.com/carterperez-dev/journal/internal/middleware"
	"github.com/carterperez-dev/journal/internal/server"
	"github.com/carterperez-dev/journal/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("gen-keys", false, "write a new ES256 session key pair and exit")
	privateKey := flag.String("private-key", "keys/private.pem", "private key path for -gen-keys")
	publicKey := flag.String("public-key", "keys/public.pem", "public key path for -gen-keys")
	flag.Parse()

	if *genKeys {
		if err := writeKeys(*privateKey, *publicKey); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func writeKeys(privatePath, publicPath string) error {
	for _, p := range []string{privatePath, publicPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}

	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return err
	}

	slog.Info("session keys written", "private", privatePath, "public", publicPath)
	return nil
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	metrics := core.NewMetrics()

	sessions, err := auth.NewSessionManager(
		cfg.Session,
		auth.NewRedisRevocationStore(redis),
	)
	if err != nil {
		return err
	}
	logger.Info("session manager initialized",
		"algorithm", "ES256",
		"key_id", sessions.GetKeyID(),
	)

	var provider billing.Provider
	if cfg.BillingEnabled() {
		provider = billing.NewStripeProvider(cfg.Stripe, cfg.App.BaseURL)
		logger.Info("stripe billing enabled", "product_id", cfg.Stripe.ProductID)
	}
	billingSvc := billing.NewService(
		provider,
		billing.NewRedisStatusCache(redis, cfg.Stripe.StatusCacheTTL),
		cfg.Stripe.ProductID,
	)
	billingHandler := billing.NewHandler(billingSvc)

	userSvc := user.NewService(user.NewRepository(db.DB), billingSvc)
	userHandler := user.NewHandler(userSvc)

	var identity auth.IdentityProvider
	if cfg.GoogleSignInEnabled() {
		identity = auth.NewGoogleProvider(cfg.Google)
	}
	authHandler := auth.NewHandler(
		auth.NewService(sessions, identity, userSvc),
		auth.HandlerConfig{
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.CookieSecure,
			SuccessURL:   cfg.App.BaseURL + "/home",
			FailureURL:   cfg.App.BaseURL + "/login",
		},
	)

	model := llm.NewInstrumentedModel(llm.NewOpenAIModel(cfg.LLM), metrics, logger)
	logger.Info("language model configured",
		"model", cfg.LLM.Model,
		"max_retries", cfg.LLM.MaxRetries,
	)

	entrySvc := entry.NewService(
		entry.NewRepository(db.DB),
		entry.NewEnricher(model),
		metrics,
	)
	entryHandler := entry.NewHandler(entrySvc)

	analysisHandler := analysis.NewHandler(
		analysis.NewService(entrySvc, model),
		analysis.NewRevealer(cfg.Reveal.ChunkSize, cfg.Reveal.Interval),
	)

	healthHandler := health.NewHandler(
		cfg.App.Version,
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:      db.Stats,
		RedisStats:   redis.PoolStats,
		DBPing:       db.Ping,
		RedisPing:    redis.Ping,
		CountUsers:   userSvc.Count,
		CountEntries: entrySvc.Total,
	})

	limitStore := middleware.NewFallbackStore(
		middleware.NewRedisStore(redis.Client),
		middleware.NewLocalStore(ctx),
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(metrics))

	probes := middleware.BypassPaths("/healthz", "/livez", "/readyz", cfg.Metrics.Path)
	router.Use(
		middleware.NewRateLimiter(middleware.RateLimitConfig{
			Limit: redis_rate.Limit{
				Rate:   cfg.RateLimit.Requests,
				Burst:  cfg.RateLimit.Burst,
				Period: cfg.RateLimit.Window,
			},
			Store:      limitStore,
			FailOpen:   true,
			BypassFunc: probes,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", sessions.GetJWKSHandler())

	authenticator := middleware.Authenticator(middleware.AuthConfig{
		Verifier:     sessions,
		Renewer:      sessions,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		RenewWindow:  cfg.Session.RenewWindow,
	})
	adminOnly := middleware.RequireAdmin(cfg.Admin.IsAdmin)

	entryQuota := middleware.Quota(middleware.QuotaConfig{
		Namespace: "entries",
		PerDay: map[string]int{
			billing.TierFree: cfg.Quota.FreeEntriesPerDay,
			billing.TierPaid: cfg.Quota.PaidEntriesPerDay,
		},
		DefaultTier: billing.TierFree,
		Store:       limitStore,
		Tiers:       billingSvc,
		Metrics:     metrics,
	})
	analysisQuota := middleware.Quota(middleware.QuotaConfig{
		Namespace: "analyses",
		PerDay: map[string]int{
			billing.TierFree: cfg.Quota.FreeAnalysesPerDay,
			billing.TierPaid: cfg.Quota.PaidAnalysesPerDay,
		},
		DefaultTier: billing.TierFree,
		Store:       limitStore,
		Tiers:       billingSvc,
		Metrics:     metrics,
	})

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		entryHandler.RegisterRoutes(r, authenticator, entryQuota)
		analysisHandler.RegisterRoutes(r, authenticator, analysisQuota)
		billingHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
