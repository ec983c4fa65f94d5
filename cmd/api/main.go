package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-admin/internal/config"
	"github.com/jwalitptl/clinic-admin/internal/email"
	"github.com/jwalitptl/clinic-admin/internal/handler"
	auditHandler "github.com/jwalitptl/clinic-admin/internal/handler/audit"
	authHandler "github.com/jwalitptl/clinic-admin/internal/handler/auth"
	dashboardHandler "github.com/jwalitptl/clinic-admin/internal/handler/dashboard"
	rbacHandler "github.com/jwalitptl/clinic-admin/internal/handler/rbac"
	userHandler "github.com/jwalitptl/clinic-admin/internal/handler/user"
	"github.com/jwalitptl/clinic-admin/internal/middleware"
	"github.com/jwalitptl/clinic-admin/internal/repository/postgres"
	"github.com/jwalitptl/clinic-admin/internal/router"
	"github.com/jwalitptl/clinic-admin/internal/service/audit"
	authService "github.com/jwalitptl/clinic-admin/internal/service/auth"
	"github.com/jwalitptl/clinic-admin/internal/service/dashboard"
	"github.com/jwalitptl/clinic-admin/internal/service/identity"
	userService "github.com/jwalitptl/clinic-admin/internal/service/user"
	"github.com/jwalitptl/clinic-admin/internal/worker"
	"github.com/jwalitptl/clinic-admin/pkg/auth"
	"github.com/jwalitptl/clinic-admin/pkg/logger"
	"github.com/jwalitptl/clinic-admin/pkg/messaging"
	"github.com/jwalitptl/clinic-admin/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-admin/pkg/metrics"
	"github.com/jwalitptl/clinic-admin/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})
	log.Logger = *appLogger.Zerolog()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("clinic", registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	checks := map[string]handler.Check{"database": db.PingContext}

	var broker messaging.Broker
	redisClient, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, identity changes stay local to this process")
	} else {
		broker = redis.NewRedisBroker(redisClient, appLogger, m)
		defer broker.Close()
		checks["redis"] = pingRedis(redisClient)
	}

	identities := identity.NewService(userRepo, cfg.Auth.IdentityCacheTTL, broker, appLogger, m)
	go func() {
		if err := identities.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("identity invalidation relay stopped")
		}
	}()

	var mailer email.Service
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		mailer = email.NewLogService(appLogger)
	}

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:      cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	auditSvc := audit.NewService(auditRepo)
	auditor := audit.NewAuditLogger(auditSvc, appLogger)

	authSvc := authService.NewService(userRepo, jwtSvc, hasher, auditor, identities)
	userSvc := userService.NewService(userRepo, hasher, mailer, auditor, identities, appLogger)
	dashboardSvc := dashboard.NewService()

	cleanup := worker.NewAuditCleanupWorker(auditRepo, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, appLogger)
	go cleanup.Start(ctx)

	r, err := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc, identities, m),
		handler.NewHandler(registry, checks),
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		rbacHandler.NewHandler(),
		dashboardHandler.NewHandler(dashboardSvc),
		auditHandler.NewHandler(auditSvc),
		router.RouterConfig{
			Mode: cfg.Server.Mode,
			RateLimit: middleware.RateLimiterConfig{
				RPS:   cfg.RateLimit.RequestsPerSecond,
				Burst: cfg.RateLimit.Burst,
			},
			RateLimits: cfg.RateLimit.Enabled,
			CORSConfig: middleware.DefaultCORSConfig(cfg.Security.AllowedOrigins),
			Security:   middleware.DefaultSecurityConfig(),
			Metrics:    m,
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func pingRedis(client *goredis.Client) handler.Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
