package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/agendalink/gateway/internal/cache"
	"github.com/agendalink/gateway/internal/config"
	"github.com/agendalink/gateway/internal/dispatch"
	authHandler "github.com/agendalink/gateway/internal/handler/auth"
	clientHandler "github.com/agendalink/gateway/internal/handler/client"
	gatewayHandler "github.com/agendalink/gateway/internal/handler/gateway"
	healthHandler "github.com/agendalink/gateway/internal/handler/health"
	integrationHandler "github.com/agendalink/gateway/internal/handler/integration"
	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/integration/gohighlevel"
	"github.com/agendalink/gateway/internal/integration/healthatom"
	"github.com/agendalink/gateway/internal/integration/reservo"
	"github.com/agendalink/gateway/internal/middleware"
	"github.com/agendalink/gateway/internal/repository/postgres"
	"github.com/agendalink/gateway/internal/router"
	"github.com/agendalink/gateway/internal/service/alert"
	apilogService "github.com/agendalink/gateway/internal/service/apilog"
	authService "github.com/agendalink/gateway/internal/service/auth"
	clientService "github.com/agendalink/gateway/internal/service/client"
	"github.com/agendalink/gateway/pkg/auth"
	"github.com/agendalink/gateway/pkg/logger"
	"github.com/agendalink/gateway/pkg/messaging"
	redisBroker "github.com/agendalink/gateway/pkg/messaging/redis"
	"github.com/agendalink/gateway/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := newLogger(cfg.Logging)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	clientRepo := postgres.NewClientRepository(base)
	apilogRepo := postgres.NewAPILogRepository(base)
	operatorRepo := postgres.NewOperatorRepository(base)

	registry, err := integration.NewRegistry(
		healthatom.NewDentalink(),
		healthatom.NewMedilink(),
		healthatom.NewDual(healthatom.NewDentalink(), healthatom.NewMedilink()),
		reservo.New(),
		gohighlevel.New(),
	)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to build integration registry")
	}

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, &zlog.Logger)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	gatewayMetrics := metrics.NewMetrics("gateway")
	directory := cache.NewDirectory(cfg.Cache.DirectoryTTL())
	resolver := dispatch.NewResolver(registry, gatewayMetrics)

	var alerter dispatch.Alerter
	if mailer := alert.NewMailer(cfg.Email, appLogger); mailer != nil {
		alerter = mailer
	}
	dispatcher := dispatch.NewDispatcher(resolver, gatewayMetrics, clientRepo, alerter, directory, appLogger)

	tokens := auth.NewTokenManager(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.Expiry(),
		cfg.JWT.RefreshExpiry(),
	)

	apilogSvc := apilogService.NewService(apilogRepo, broker, appLogger)
	clientSvc := clientService.NewService(clientRepo, registry, directory)
	authSvc := authService.NewService(operatorRepo, tokens)

	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens),
		middleware.APILog(apilogSvc),
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		clientHandler.NewHandler(clientSvc, apilogSvc),
		integrationHandler.NewHandler(registry),
		gatewayHandler.NewHandler(clientSvc, dispatcher),
		router.Config{
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "gateway_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.Timeout(),
		WriteTimeout: cfg.Server.Timeout(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}

func newLogger(cfg config.LoggingConfig) *logger.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	return logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Pretty,
	})
}
