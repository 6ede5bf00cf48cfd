package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/teachhire/marketplace/backend/internal/config"
	"github.com/teachhire/marketplace/backend/internal/hiring"
	"github.com/teachhire/marketplace/backend/internal/repository"
	"github.com/teachhire/marketplace/backend/internal/seed"
	"github.com/teachhire/marketplace/backend/internal/store"
	"github.com/teachhire/marketplace/backend/internal/store/memory"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var institutes int
	var candidates int

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	flag.IntVar(&institutes, "institutes", cfg.Seed.Institutes, "number of institutes to create")
	flag.IntVar(&candidates, "candidates", cfg.Seed.Candidates, "number of candidates to create")
	flag.Parse()

	if institutes < 0 || candidates < 0 {
		logger.Error("counts must not be negative")
		os.Exit(1)
	}

	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		// useful as a dry run of the seeding logic
		st = memory.New()
	default:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}

		repo := repository.NewRepository(cfg, dbpool)
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		st = repo
	}

	engine := hiring.New(st, hiring.OptionsFromConfig(cfg), hiring.WithLogger(logger))

	summary, err := seed.New(engine, logger).Run(context.Background(), seed.Options{
		Institutes: institutes,
		Candidates: candidates,
		EmailHost:  cfg.Seed.EmailHost,
	})
	if err != nil {
		logger.Error("seeding stopped early", "error", err, "institutes", summary.Institutes, "candidates", summary.Candidates, "jobs", summary.Jobs, "applications", summary.Applications)
		os.Exit(1)
	}

	logger.Info("seeding finished",
		"institutes", summary.Institutes,
		"candidates", summary.Candidates,
		"jobs", summary.Jobs,
		"applications", summary.Applications,
		"transitions", summary.Transitions,
	)
}
