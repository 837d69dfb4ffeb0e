package scheduler

import (
	"context"
	"fmt"

	"medcrm_backend/internal/events"
	"medcrm_backend/platform/config"
	"medcrm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// LeadNotifier performs the side effects behind each task.
type LeadNotifier interface {
	SendWelcome(ctx context.Context, e events.LeadCreated) error
	NotifyAdvisor(ctx context.Context, e events.LeadCreated) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier LeadNotifier
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, notifier LeadNotifier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		notifier: notifier,
		log:      log,
	}
	w.mux.HandleFunc(TaskLeadWelcome, w.handleLeadWelcome)
	w.mux.HandleFunc(TaskLeadAdvisorNotice, w.handleLeadAdvisorNotice)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// Task failures are already logged by the notifier; returning them lets
// asynq archive the task since none are retried.
func (w *Worker) handleLeadWelcome(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.notifier.SendWelcome(ctx, payload)
}

func (w *Worker) handleLeadAdvisorNotice(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.notifier.NotifyAdvisor(ctx, payload)
}
