package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"minierp/internal/auth"
	"minierp/internal/config"
	"minierp/internal/customer"
	"minierp/internal/infrastructure/logger"
	"minierp/internal/infrastructure/mysql"
	redisinfra "minierp/internal/infrastructure/redis"
	"minierp/internal/order"
	ordercontroller "minierp/internal/order/controller"
	"minierp/internal/product"
	"minierp/internal/server"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mysql.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		zapLogger.Fatal("migrating schema", zap.Error(err))
	}
	cancelMigrate()

	var guard ordercontroller.IdempotencyGuard = redisinfra.NoopGuard{}
	if cfg.Redis.Addr != "" {
		redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := redisinfra.NewClient(redisCtx, cfg.Redis)
		cancelRedis()
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer client.Close()
		guard = redisinfra.NewIdempotencyGuard(client, cfg.Redis.IdempotencyTTL)
		zapLogger.Info("idempotency guard enabled", zap.String("addr", cfg.Redis.Addr))
	}

	authModule := auth.NewModule(db, cfg.JWT, zapLogger)

	router := server.NewRouter(server.Handlers{
		Auth:      authModule.Controller,
		Customers: customer.NewModule(db, zapLogger),
		Products:  product.NewModule(db, zapLogger),
		Orders:    order.NewModule(db, cfg.Order, guard, zapLogger),
	}, authModule.Tokens, db, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
