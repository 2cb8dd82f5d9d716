package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	echoapi "go.pilab.hu/smtp-sso/api/echo"
	"go.pilab.hu/smtp-sso/cache"
	rediscache "go.pilab.hu/smtp-sso/cache/redis"
	"go.pilab.hu/smtp-sso/clients/supabase"
	"go.pilab.hu/smtp-sso/config"
	"go.pilab.hu/smtp-sso/domain"
	"go.pilab.hu/smtp-sso/inmemory"
	"go.pilab.hu/smtp-sso/internal/server"
	"go.pilab.hu/smtp-sso/log"
	"go.pilab.hu/smtp-sso/middleware"
	"go.pilab.hu/smtp-sso/mongodb"
	"go.pilab.hu/smtp-sso/services"
	"go.pilab.hu/smtp-sso/tracing"
)

var (
	appLogger      log.Logger
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger = log.Setup(cfg.LogLevel, cfg.LogPretty)
	ctx := context.Background()
	appLogger.Info(ctx, "Starting smtp-sso server...", map[string]interface{}{
		"http_port":    cfg.HTTPPort,
		"storage":      cfg.Storage,
		"log_level":    cfg.LogLevel,
		"otel_service": cfg.OtelServiceName,
	})

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}
	tracerProvider = tp

	// Storage backend.
	var (
		codeRepo     domain.AuthCodeRepository
		sessionRepo  domain.SessionRepository
		settingsRepo domain.SMTPSettingsRepository
	)
	switch cfg.Storage {
	case "mongo":
		if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
			appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr)
		}
		defer mongodb.CloseMongoDB(ctx)

		db := mongodb.GetDB()
		codeRepo = mongodb.NewAuthCodeRepository(db)
		sessionRepo = mongodb.NewSessionRepository(db)
		settingsRepo = mongodb.NewSMTPSettingsRepository(db)
	case "memory":
		appLogger.Warn(ctx, "Using in-memory storage, all state is lost on restart")
		codeRepo = inmemory.NewAuthCodeRepository()
		sessionRepo = inmemory.NewSessionRepository()
		settingsRepo = inmemory.NewSMTPSettingsRepository()
	default:
		appLogger.Fatal(ctx, "Unknown STORAGE backend", nil, map[string]interface{}{
			"storage": cfg.Storage,
		})
	}

	// Session cache: Redis when configured, in-process otherwise.
	var sessionCache cache.SessionCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", pingErr)
		}
		sessionCache = rediscache.NewSessionCache(redisClient, "smtp-sso")
	} else {
		sessionCache = cache.NewMemorySessionCache()
	}
	defer func() {
		if closeErr := sessionCache.Close(); closeErr != nil {
			appLogger.Error(ctx, "Failed to close session cache", closeErr)
		}
	}()

	// The single registered OAuth client.
	registry := domain.NewStaticClientRegistry(&domain.Client{
		ID:     cfg.OAuthClientID,
		Secret: cfg.OAuthClientSecret,
		Name:   "smtp-sso",
	})

	if cfg.AllowDemoUser {
		appLogger.Warn(ctx, "Demo user fallback is enabled, do not run this in production")
	}

	// Services.
	oauthService := services.NewOAuthService(codeRepo, sessionRepo, sessionCache, registry, cfg.AllowDemoUser)
	management := supabase.NewManagementClient(
		supabase.WithManagementBaseURL(cfg.SupabaseManagementURL))
	credentialService := services.NewCredentialService(settingsRepo, services.DefaultEmailClientFactory, management)
	emailService := services.NewEmailService(settingsRepo, services.DefaultEmailClientFactory,
		cfg.ElasticEmailAPIKey, cfg.DefaultFromEmail, cfg.DefaultFromName)

	var identity *supabase.IdentityVerifier
	if cfg.SupabaseJWTSecret != "" {
		identity = supabase.NewIdentityVerifier(cfg.SupabaseJWTSecret)
	} else {
		appLogger.Warn(ctx, "SUPABASE_JWT_SECRET not set, authorize callers stay anonymous")
	}

	// HTTP surface.
	httpServer := server.NewHTTPServer(":" + cfg.HTTPPort)
	e := httpServer.Echo()

	identityMW := middleware.ResolveIdentity(identity)
	echoapi.NewOAuth2API(oauthService, registry, identityMW).RegisterRoutes(e)
	echoapi.NewResourceAPI(emailService, credentialService,
		middleware.RequireSession(oauthService)).RegisterRoutes(e)
	echoapi.RegisterHealthz(e)

	// Optional storage sweeper. Expiry is enforced lazily on lookup, this
	// only reclaims space.
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	if cfg.SweepIntervalMin > 0 {
		go runSweeper(sweepCtx, oauthService, time.Duration(cfg.SweepIntervalMin)*time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Error(ctx, "HTTP server failed", err)
		}
	case sig := <-quit:
		appLogger.Info(ctx, "Shutting down", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown failed", err)
	}

	appLogger.Info(ctx, "Server stopped")
}

func runSweeper(ctx context.Context, oauth *services.OAuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := oauth.SweepExpired(ctx); err != nil {
				appLogger.Error(ctx, "Expired record sweep failed", err)
			}
		}
	}
}
