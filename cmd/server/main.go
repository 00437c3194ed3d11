package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"togglehub/internal/api"
	"togglehub/internal/config"
	"togglehub/internal/mail"
	"togglehub/internal/metrics"
	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/internal/service"
	"togglehub/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// Initialize logger
	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 2. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Infrastructure
	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	mongoCli, err := initMongo(cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := mongoCli.Disconnect(disconnectCtx); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	db, err := initDB(cfg.MySQL)
	if err != nil {
		return err
	}

	// 4. Initialize Repositories
	featureRepo := repository.NewFeatureRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	auditRepo := repository.NewAuditRepository(mongoCli, cfg.Mongo.Database)

	// 5. Initialize Services
	observer := metrics.NewPrometheusObserver()

	recorder := service.NewUsageRecorder(usageRepo, observer, cfg.Usage.BufferSize, cfg.Usage.Workers, cfg.Usage.WriteTimeout)
	auditSvc := service.NewAuditService(auditRepo)
	evalSvc := service.NewEvalService(featureRepo, recorder, observer)
	authSvc := service.NewAuthService(userRepo, rdb, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	featureSvc := service.NewFeatureService(db, featureRepo, projectRepo, historyRepo, auditSvc)
	projectSvc := service.NewProjectService(projectRepo, auditSvc)
	companySvc := service.NewCompanyService(companyRepo, auditSvc)
	userSvc := service.NewUserService(userRepo, auditSvc, initMailer(cfg.Mail), cfg.Server.LoginURL)
	reportSvc := service.NewReportService(usageRepo, service.NewRedisReportCache(rdb), observer, cfg.Report.CacheTTL)

	// 6. Start Background Workers
	go func() {
		logger.Info("starting usage recorder")
		recorder.Run(ctx)
	}()

	// 7. Setup HTTP Server
	devMode := cfg.Server.Environment == "dev"
	r := api.RegisterRoutes(api.Handlers{
		Health:  api.NewHealthHandler(db, rdb),
		Auth:    api.NewAuthHandler(authSvc),
		Check:   api.NewCheckHandler(evalSvc),
		Feature: api.NewFeatureHandler(featureSvc),
		Project: api.NewProjectHandler(projectSvc),
		Company: api.NewCompanyHandler(companySvc),
		User:    api.NewUserHandler(userSvc),
		Report:  api.NewReportHandler(reportSvc),
		History: api.NewHistoryHandler(historyRepo),
		Audit:   api.NewAuditHandler(auditSvc),
	}, projectRepo, rdb, cfg.RateLimit.RequestsPerSecond, devMode)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	// 8. Start Server
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	// 9. Graceful Shutdown Signal Wait
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// Create a deadline to wait for current requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop the recorder so it drains buffered usage records
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

// -- Infrastructure Initializers --

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func initMongo(cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return client, nil
}

func initDB(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	// Simple auto-migrate for dev convenience
	// In production, you might want to use a proper migration tool like golang-migrate
	err = db.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Project{},
		&model.Feature{},
		&model.ChangeHistory{},
		&model.UsageLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func initMailer(cfg config.MailConfig) mail.Sender {
	if cfg.ServerToken == "" {
		logger.Warn("postmark token missing, welcome mail disabled")
		return mail.NoopSender{}
	}

	sender, err := mail.NewPostmarkSender(mail.Config{
		ServerToken:  cfg.ServerToken,
		AccountToken: cfg.AccountToken,
		SenderEmail:  cfg.SenderEmail,
	})
	if err != nil {
		logger.Warn("postmark init failed, welcome mail disabled", zap.Error(err))
		return mail.NoopSender{}
	}
	return sender
}
