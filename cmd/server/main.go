package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/electro_shop/internal/cache"
	"github.com/Skotchmaster/electro_shop/internal/config"
	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/hash"
	"github.com/Skotchmaster/electro_shop/internal/httpserver"
	"github.com/Skotchmaster/electro_shop/internal/lock"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/internal/search"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
)

func main() {
	cfg := config.Load()
	cfg.MustValidate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	startCtx = logging.IntoContext(startCtx, logger)

	db, err := config.OpenDB(startCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	r := repo.New(db)

	var (
		locker      lock.Locker   = lock.NewKeyedMutex()
		catalog     cache.Catalog = cache.Nop{}
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient, err = cache.Connect(startCtx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Error("redis_connect_failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		locker = lock.NewRedisLocker(redisClient)
		catalog = cache.NewRedisCatalog(redisClient)
		logger.Info("redis_enabled", "addr", cfg.RedisAddr)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var index search.Index
	if cfg.ESURL != "" {
		es, err := search.NewClient(startCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Error("elasticsearch_connect_failed", "url", cfg.ESURL, "error", err)
			os.Exit(1)
		}
		index = &search.ESIndex{ES: es, Index: cfg.ESIndex}
		logger.Info("elasticsearch_enabled", "url", cfg.ESURL, "index", cfg.ESIndex)
	}

	tok := tokens.NewService(cfg.JWTSecret, cfg.TokenTTL)
	carts := &service.CartService{Repo: r, Locker: locker, Events: pub, Now: time.Now}
	deps := &httpserver.Deps{
		Auth:    &service.AuthService{Repo: r, Tokens: tok, Events: pub, HashCost: hash.Cost, Now: time.Now},
		Profile: &service.ProfileService{Repo: r, HashCost: hash.Cost},
		Catalog: &service.CatalogService{Repo: r, Cache: catalog, Index: index, Events: pub, Now: time.Now},
		Cart:    carts,
		Order:   &service.OrderService{Repo: r, Carts: carts, Events: pub, Now: time.Now, PaymentSecret: cfg.PaymentKeySecret},
		Tokens:  tok,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			if redisClient != nil {
				return redisClient.Ping(ctx).Err()
			}
			return nil
		},
	}

	if _, err := deps.Auth.SeedAdmin(startCtx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("admin_seed_failed", "error", err)
		os.Exit(1)
	}
	if index != nil {
		if _, err := deps.Catalog.Reindex(startCtx); err != nil {
			logger.Warn("reindex_failed", "error", err)
		}
	}
	cancelStart()

	e := httpserver.New(logger, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	} else {
		logger.Error("db_handle_error", "error", err)
	}

	if err := pub.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
