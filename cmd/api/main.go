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

	"medcrm_backend/internal/adapters/storage"
	"medcrm_backend/internal/assignment"
	"medcrm_backend/internal/categories"
	"medcrm_backend/internal/email"
	"medcrm_backend/internal/events"
	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/internal/http/router"
	"medcrm_backend/internal/leads"
	"medcrm_backend/internal/leads/intake"
	"medcrm_backend/internal/messaging"
	"medcrm_backend/internal/notification"
	"medcrm_backend/internal/scheduler"
	"medcrm_backend/internal/store"
	"medcrm_backend/internal/webhook"
	"medcrm_backend/internal/whatsapp"
	"medcrm_backend/platform/config"
	"medcrm_backend/platform/db"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
	"medcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const intakeLockKey = "medcrm:intake:lock"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	stores, closeStores := openStores(ctx, cfg, log)
	defer closeStores()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	lock, closeLock := initIntakeLock(cfg, log)
	defer closeLock()

	archiver := initArchiver(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(notification.Deps{
		Sender:          whatsappSender(cfg, log),
		Mailer:          emailSender(cfg),
		Composer:        messaging.NewComposer(cfg.GetWhatsAppDefaultSession()),
		DispatchTimeout: cfg.GetDispatchTimeout(),
		Metrics:         m,
		Logger:          log,
	})
	notificationModule.RegisterHandlers(eventBus)
	if client, closeClient := initTaskClient(cfg, log); client != nil {
		defer closeClient()
		notificationModule.SetTaskEnqueuer(client)
	}

	categoriesModule, err := categories.NewModule(stores.Categories, val, log)
	if err != nil {
		log.Error("failed to initialize categories module", "error", err)
		panic("failed to initialize categories module: " + err.Error())
	}
	assignmentModule := assignment.NewModule(stores.Settings, stores.Categories, val, m, log)
	leadsModule := leads.NewModule(leads.Deps{
		Customers: stores.Customers,
		Campaigns: categoriesModule.Service(),
		Advisors:  assignmentModule.Service(),
		Lock:      lock,
		Bus:       eventBus,
		Validator: val,
		Metrics:   m,
		Logger:    log,
	})
	webhookModule := webhook.NewModule(leadsModule.Intake(), archiver, cfg.GetWebhookAPIKey(), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   stores.Health,
		EventBus: eventBus,
		Metrics:  m,
		Gatherer: registry,
		Modules: []apphttp.Module{
			categoriesModule,
			assignmentModule,
			leadsModule,
			webhookModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr, "storage", stores.Driver)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		// In-flight notifications finish before the stores close.
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Stores, func()) {
	if !cfg.UsePostgres() {
		stores, err := store.NewJSON(cfg.GetDataDir())
		if err != nil {
			log.Error("failed to open data directory", "error", err, "dir", cfg.GetDataDir())
			panic("failed to open data directory: " + err.Error())
		}
		log.Info("using json file storage", "dir", cfg.GetDataDir())
		return stores, func() {}
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	return store.NewPostgres(pool), pool.Close
}

// initIntakeLock shares the dedup lock across API replicas when Redis is
// available; a single process falls back to an in-memory lock.
func initIntakeLock(cfg *config.Config, log *logger.Logger) (intake.Locker, func()) {
	noop := func() {}
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; intake lock is process-local")
		return intake.NewMutexLocker(), noop
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL, using process-local intake lock", "error", err)
		return intake.NewMutexLocker(), noop
	}
	client := redis.NewClient(opt)
	locker := intake.NewRedisLocker(client, intakeLockKey, cfg.GetIntakeLockTTL(), cfg.GetIntakeLockWait())
	return locker, func() { _ = client.Close() }
}

func initTaskClient(cfg *config.Config, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; notifications run in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg, cfg.GetDispatchTimeout())
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initArchiver(ctx context.Context, cfg *config.Config, log *logger.Logger) *webhook.Archiver {
	if !cfg.IsMinIOEnabled() {
		log.Info("MinIO not configured; webhook payloads are not archived")
		return nil
	}
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		return nil
	}
	bucket := cfg.GetMinioBucketWebhookPayloads()
	if err := withRetry(ctx, log, "ensure webhook payload bucket", 3, time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		return nil
	}
	log.Info("storage service initialized", "webhookPayloadsBucket", bucket)
	return webhook.NewArchiver(storageSvc, bucket, log)
}

func whatsappSender(cfg config.WhatsAppConfig, log *logger.Logger) notification.Sender {
	client := whatsapp.NewClient(cfg, log)
	if client == nil {
		log.Warn("WHATSAPP_URL not configured; welcome messages are skipped")
		return nil
	}
	return client
}

func emailSender(cfg config.SMTPConfig) email.Sender {
	if sender := email.NewSMTPSender(cfg); sender != nil {
		return sender
	}
	return nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
