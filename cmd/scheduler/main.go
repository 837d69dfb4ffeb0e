package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medcrm_backend/internal/email"
	"medcrm_backend/internal/messaging"
	"medcrm_backend/internal/notification"
	"medcrm_backend/internal/scheduler"
	"medcrm_backend/internal/whatsapp"
	"medcrm_backend/platform/config"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var sender notification.Sender
	if client := whatsapp.NewClient(cfg, log); client != nil {
		sender = client
	} else {
		log.Warn("WHATSAPP_URL not configured; welcome messages are skipped")
	}
	var mailer email.Sender
	if smtp := email.NewSMTPSender(cfg); smtp != nil {
		mailer = smtp
	}

	// The worker delivers directly; it never re-enqueues.
	notificationModule := notification.New(notification.Deps{
		Sender:          sender,
		Mailer:          mailer,
		Composer:        messaging.NewComposer(cfg.GetWhatsAppDefaultSession()),
		DispatchTimeout: cfg.GetDispatchTimeout(),
		Metrics:         m,
		Logger:          log,
	})

	worker, err := scheduler.NewWorker(cfg, notificationModule, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	metricsAddr := os.Getenv("SCHEDULER_METRICS_ADDR")
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	worker.Run(ctx)
}
