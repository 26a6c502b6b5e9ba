package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"minierp/internal/auth"
	"minierp/internal/config"
	customerrepo "minierp/internal/customer/repository"
	"minierp/internal/infrastructure/logger"
	"minierp/internal/infrastructure/mysql"
	productrepo "minierp/internal/product/repository"
	"minierp/internal/seed"
)

func main() {
	file := flag.String("file", "seed.yaml", "path to the YAML fixtures")
	flag.Parse()

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

	fixtures, err := seed.LoadFile(*file)
	if err != nil {
		zapLogger.Fatal("loading fixtures", zap.String("file", *file), zap.Error(err))
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := mysql.Migrate(ctx, db); err != nil {
		zapLogger.Fatal("migrating schema", zap.Error(err))
	}

	seeder := seed.NewSeeder(
		auth.NewModule(db, cfg.JWT, zapLogger).Service,
		customerrepo.NewMySQLRepository(db),
		productrepo.NewMySQLRepository(db),
		zapLogger,
	)

	res, err := seeder.Apply(ctx, fixtures)
	if err != nil {
		zapLogger.Fatal("seeding failed", zap.Int("created", res.Created), zap.Error(err))
	}

	zapLogger.Info("seed complete", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
}
