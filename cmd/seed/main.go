package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medcrm_backend/internal/assignment"
	"medcrm_backend/internal/categories"
	"medcrm_backend/internal/seed"
	"medcrm_backend/internal/store"
	"medcrm_backend/platform/config"
	"medcrm_backend/platform/db"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
	"medcrm_backend/platform/validator"
)

func main() {
	file := flag.String("file", "seed.yaml", "path to the seed YAML file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	f, err := os.Open(*file)
	if err != nil {
		log.Error("failed to open seed file", "file", *file, "error", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	doc, err := seed.Load(f)
	if err != nil {
		log.Error("failed to parse seed file", "file", *file, "error", err)
		os.Exit(1)
	}

	var stores *store.Stores
	if cfg.UsePostgres() {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
		stores = store.NewPostgres(pool)
	} else {
		stores, err = store.NewJSON(cfg.GetDataDir())
		if err != nil {
			log.Error("failed to open data directory", "dir", cfg.GetDataDir(), "error", err)
			os.Exit(1)
		}
	}

	val := validator.New()
	categoriesModule, err := categories.NewModule(stores.Categories, val, log)
	if err != nil {
		log.Error("failed to initialize categories module", "error", err)
		os.Exit(1)
	}
	assignmentModule := assignment.NewModule(stores.Settings, stores.Categories, val, metrics.Nop(), log)

	sum, err := seed.NewApplier(categoriesModule.Service(), assignmentModule.Service(), val).Apply(ctx, doc)
	if err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("seed applied",
		"storage", stores.Driver,
		"categoriesCreated", sum.CategoriesCreated,
		"categoriesUpdated", sum.CategoriesUpdated,
		"labelsCreated", sum.LabelsCreated,
		"labelsUpdated", sum.LabelsUpdated,
		"settings", sum.SettingsWritten,
	)
}
