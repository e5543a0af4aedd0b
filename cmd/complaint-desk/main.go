package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/handler"
	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/repository"
	"github.com/noah-isme/complaint-desk/internal/router"
	"github.com/noah-isme/complaint-desk/internal/service"
	"github.com/noah-isme/complaint-desk/pkg/cache"
	"github.com/noah-isme/complaint-desk/pkg/config"
	"github.com/noah-isme/complaint-desk/pkg/database"
	"github.com/noah-isme/complaint-desk/pkg/jobs"
	"github.com/noah-isme/complaint-desk/pkg/logger"
)

// @title Complaint Desk API
// @version 1.0.0
// @description Complaint intake with admin-moderated message threads
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, live message stream disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()

	events := service.NewMessageEventService(repository.NewMessageBus(redisClient), metrics, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
	})
	events.Start(context.Background())
	defer events.Stop()

	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.Session.Secret,
		TokenExpiry: cfg.Session.MaxAge,
	})
	complaintSvc := service.NewComplaintService(complaintRepo, messageRepo, service.ComplaintServiceOptions{
		Policy: models.LifecyclePolicy{
			RestrictThreads:          cfg.Lifecycle.StrictThreadAccess,
			RequireActiveForMessages: cfg.Lifecycle.RequireActiveForMessages,
		},
		Logger:  logr,
		Metrics: metrics,
		Events:  events,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	exportSvc := service.NewExportService(complaintRepo, logr)

	engine := router.New(router.Options{
		Config:   cfg,
		Logger:   logr,
		Resolver: authSvc,
		Metrics:  metrics,
		Handlers: router.Handlers{
			Auth:       handler.NewAuthHandler(authSvc),
			Complaints: handler.NewComplaintHandler(complaintSvc),
			Users:      handler.NewUserHandler(userSvc),
			Export:     handler.NewExportHandler(exportSvc),
			Stream:     handler.NewStreamHandler(complaintSvc, events, metrics, logr, cfg.CORS.AllowedOrigins),
			Metrics:    handler.NewMetricsHandler(metrics, db, cfg.Env),
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
