package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/teachhire/marketplace/backend/internal/cache"
	"github.com/teachhire/marketplace/backend/internal/config"
	"github.com/teachhire/marketplace/backend/internal/handler"
	"github.com/teachhire/marketplace/backend/internal/hiring"
	"github.com/teachhire/marketplace/backend/internal/mailer"
	"github.com/teachhire/marketplace/backend/internal/repository"
	"github.com/teachhire/marketplace/backend/internal/store"
	"github.com/teachhire/marketplace/backend/internal/store/memory"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	options := []hiring.Option{hiring.WithLogger(logger)}

	/**********************************************
	 * store
	 **********************************************/
	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("using the in-memory store, data is lost on restart")
		st = memory.New()
	default:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			return
		}
		defer dbpool.Close()

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open does not connect, ping to fail fast
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("failed to connect to database", "error", err)
			return
		}

		repo := repository.NewRepository(cfg, dbpool)
		if cfg.Database.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				logger.Error("failed to migrate database", "error", err)
				return
			}
		}
		st = repo
	}

	/**********************************************
	 * cache
	 **********************************************/
	statsTTL := time.Duration(cfg.Stats.CacheTTL) * time.Second
	eventTTL := time.Duration(cfg.Payment.EventTTL) * time.Second

	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			return
		}

		c := cache.NewRedis(rdb, statsTTL, eventTTL, time.Duration(cfg.Redis.OperationExpiration)*time.Second)
		options = append(options, hiring.WithStatsCache(c), hiring.WithEventDeduper(c))
	} else {
		logger.Warn("REDIS_HOST is empty, using the in-process cache")
		c := cache.NewMemory(statsTTL, eventTTL)
		options = append(options, hiring.WithStatsCache(c), hiring.WithEventDeduper(c))
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("failed to open channel", "error", err)
			return
		}
		defer ch.Close()

		if _, err := mailer.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
			logger.Error("failed to declare queue", "error", err)
			return
		}

		publisher := mailer.NewPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
		options = append(options, hiring.WithMailPublisher(publisher))
	} else {
		logger.Warn("RABBITMQ_DSN is empty, mail delivery is disabled")
	}

	/**********************************************
	 * engine and handler
	 **********************************************/
	engine := hiring.New(st, hiring.OptionsFromConfig(cfg), options...)

	handler, err := handler.NewHandler(cfg, engine)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
