// Command server runs the AnimalGuardian case management API.
//
// @title                       AnimalGuardian API
// @version                     1.0
// @description                 Livestock case reporting, veterinarian assignment and notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/animalguardian/platform/docs"
	"github.com/animalguardian/platform/internal/api"
	"github.com/animalguardian/platform/internal/api/handler"
	"github.com/animalguardian/platform/internal/core/service"
	"github.com/animalguardian/platform/internal/infrastructure/config"
	"github.com/animalguardian/platform/internal/infrastructure/db/gormdb"
	mongostore "github.com/animalguardian/platform/internal/infrastructure/db/mongo"
	redisstore "github.com/animalguardian/platform/internal/infrastructure/db/redis"
	"github.com/animalguardian/platform/internal/infrastructure/notify"
	"github.com/animalguardian/platform/internal/infrastructure/queue"
	"github.com/animalguardian/platform/internal/infrastructure/stream"
	"github.com/animalguardian/platform/pkg/logger"
)

const (
	serviceName     = "animalguardian"
	shutdownTimeout = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Level: "info"})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(logger.OptionsFor(cfg.Env, cfg.LogLevel, serviceName))

	// --- Relational store ---
	db, err := gormdb.Open(gormdb.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Debug:           cfg.Database.Debug,
		Logger:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("open database")
	}
	if err := gormdb.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("database handle")
	}
	defer sqlDB.Close()

	// --- Audit trail ---
	audit, err := mongostore.Open(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer audit.Close(context.Background())

	// --- Email dedup ---
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		URL:      cfg.Redis.URL,
		PoolSize: cfg.Redis.PoolSize,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	// --- Outbound channels ---
	sender, err := notify.New(ctx, notify.Config{
		Transport: cfg.Email.Transport,
		SMTP: notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		},
		SQS: notify.SQSConfig{
			QueueURL:  cfg.SQS.QueueURL,
			QueueName: cfg.SQS.QueueName,
		},
	}, log)
	if err != nil {
		log.Fatal().Err(err).Str("transport", cfg.Email.Transport).Msg("email transport")
	}
	publisher := stream.New(stream.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Logger:  logger.Component(log, "event_stream"),
	})
	if c, ok := publisher.(io.Closer); ok {
		defer c.Close()
	}

	// --- Services ---
	repos := gormdb.NewRepositories(db)
	uow := gormdb.NewUnitOfWork(db)

	deliverer := service.NewEmailDelivery(repos.Notifications, sender, redisstore.NewDeliveryDedup(rdb, cfg.Email.DedupTTL), log)
	dispatcher := queue.NewDispatcher(queue.Config{
		Workers:     cfg.Email.Workers,
		QueueSize:   cfg.Email.QueueSize,
		MaxAttempts: cfg.Email.MaxAttempts,
		BaseBackoff: cfg.Email.BaseBackoff,
		MaxBackoff:  cfg.Email.MaxBackoff,
	}, deliverer, logger.Component(log, "email_dispatcher"))

	notifications := service.NewNotificationService(repos.Notifications, dispatcher, log)
	cases := service.NewCaseService(repos, uow, notifications, mongostore.NewCaseEventRepository(audit.DB), publisher, log)
	users := service.NewUserService(repos.Users, uow, notifications, log)
	livestock := service.NewLivestockService(repos.Livestock, log)
	auth := service.NewAuthService(repos.Users, cfg.JWTSecret, cfg.TokenTTL)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	if n, err := notifications.ResumePending(ctx); err != nil {
		log.Error().Err(err).Msg("resume pending emails")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("resumed pending emails")
	}
	go notifications.SweepPending(workerCtx, cfg.Email.SweepInterval, cfg.Email.SweepMinAge)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Logger:        log,
		Debug:         cfg.IsDevelopment(),
		JWTSecret:     cfg.JWTSecret,
		Auth:          auth,
		Users:         users,
		Cases:         cases,
		Livestock:     livestock,
		Notifications: notifications,
		Checks: map[string]handler.Check{
			"database": handler.SQLCheck(sqlDB),
			"mongodb":  handler.MongoCheck(audit.DB),
			"redis":    handler.RedisCheck(rdb),
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
}
