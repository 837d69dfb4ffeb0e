package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"medcrm_backend/internal/events"
	"medcrm_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultTaskTimeout = 15 * time.Second

type Client struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

// NewClient connects to the queue named by cfg. taskTimeout bounds each
// notification task on the worker side.
func NewClient(cfg config.SchedulerConfig, taskTimeout time.Duration) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(opt, cfg.GetAsynqQueueName(), taskTimeout), nil
}

func newClient(opt asynq.RedisConnOpt, queue string, taskTimeout time.Duration) *Client {
	if queue == "" {
		queue = "default"
	}
	if taskTimeout <= 0 {
		taskTimeout = defaultTaskTimeout
	}
	return &Client{
		client:  asynq.NewClient(opt),
		queue:   queue,
		timeout: taskTimeout,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueLeadNotifications queues the welcome message and the advisor notice
// as two independent tasks. Neither is retried: a missed send is only logged.
func (c *Client) EnqueueLeadNotifications(ctx context.Context, event events.LeadCreated) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler client not configured")
	}

	welcome, err := NewLeadWelcomeTask(event)
	if err != nil {
		return err
	}
	notice, err := NewLeadAdvisorNoticeTask(event)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
		asynq.Timeout(c.timeout),
	}
	if _, err := c.client.EnqueueContext(ctx, welcome, opts...); err != nil {
		return fmt.Errorf("enqueue welcome: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, notice, opts...); err != nil {
		return fmt.Errorf("enqueue advisor notice: %w", err)
	}
	return nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
