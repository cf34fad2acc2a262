package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/Eursukkul/discovery-service/config"
	"github.com/Eursukkul/discovery-service/internal/cache"
	"github.com/Eursukkul/discovery-service/internal/consumer"
	"github.com/Eursukkul/discovery-service/internal/handler"
	"github.com/Eursukkul/discovery-service/internal/middleware"
	"github.com/Eursukkul/discovery-service/internal/repository"
	"github.com/Eursukkul/discovery-service/internal/service"
	"github.com/Eursukkul/discovery-service/pkg/database"
	"github.com/Eursukkul/discovery-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRsvpRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Social snapshots are read straight from Postgres when Redis is not configured.
	var socialCache service.SocialCache
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		socialCache = cache.NewSocialCache(rdb, cfg.SocialCacheTTL)
	}
	social := service.NewSocialGraph(userRepo, relationRepo, socialCache)

	// Services
	rsvpSvc := service.NewRsvpService(eventRepo, rsvpRepo, social, service.RsvpOptions{
		MaxPlusOnes: cfg.RsvpMaxPlusOnes,
		AutoPromote: cfg.RsvpAutoPromote,
	})
	var promoter service.WaitlistPromoter
	if cfg.RsvpAutoPromote {
		promoter = rsvpSvc
	}
	eventSvc := service.NewEventService(eventRepo, social, promoter)
	cleanupSvc := service.NewCleanupService(rsvpRepo, social, promoter)

	feedOpts := service.DefaultFeedOptions()
	feedOpts.GraceWindow = cfg.FeedGraceWindow
	feedOpts.MaxRadiusMiles = cfg.FeedMaxRadiusMiles
	feedOpts.DefaultLimit = cfg.FeedDefaultLimit
	feedOpts.MaxLimit = cfg.FeedMaxLimit
	feedSvc := service.NewFeedService(eventRepo, userRepo, social, feedOpts, time.Now)

	// RabbitMQ: severance cleanup runs off the request path when the broker
	// is reachable, and inline otherwise.
	var publisher service.EventPublisher
	var consumerDone <-chan struct{}
	if mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL); err != nil {
		slog.Warn("RabbitMQ unavailable, relation cleanup will run in-request", "error", err)
	} else {
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			slog.Error("failed to connect RabbitMQ consumer", "error", err)
			os.Exit(1)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			slog.Error("failed to start consuming", "error", err)
			os.Exit(1)
		}
		consumerDone = consumer.NewSeveranceConsumer(cleanupSvc).Start(ctx, msgs)
	}
	relationSvc := service.NewRelationService(userRepo, relationRepo, social, publisher, cleanupSvc, time.Now)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			slog.InfoContext(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "discovery-service"})
	})

	api := e.Group("/api/v1", middleware.RequireUser(cfg.JWTSecret))
	handler.NewFeedHandler(feedSvc).RegisterRoutes(api)
	handler.NewEventHandler(eventSvc).RegisterRoutes(api)
	handler.NewRsvpHandler(rsvpSvc).RegisterRoutes(api)
	handler.NewRelationHandler(relationSvc).RegisterRoutes(api)

	go func() {
		slog.Info("Discovery Service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
		}
	}
	slog.Info("Discovery Service stopped")
}
