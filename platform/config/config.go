// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StorageConfig selects the persistence driver for configuration and customers.
type StorageConfig interface {
	DatabaseConfig
	GetDataDir() string
	UsePostgres() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WebhookConfig provides settings for inbound webhook authentication.
type WebhookConfig interface {
	GetWebhookAPIKey() string
	GetWebhookRatePerMinute() int
}

// WhatsAppConfig provides settings for the outbound WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDefaultSession() string
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// IntakeConfig provides settings for lead intake side effects.
type IntakeConfig interface {
	GetDispatchTimeout() time.Duration
	GetIntakeLockTTL() time.Duration
	GetIntakeLockWait() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketWebhookPayloads() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for advisor email notifications.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	DataDir                    string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	WebhookAPIKey              string
	WebhookRatePerMinute       int
	WhatsAppURL                string
	WhatsAppKey                string
	WhatsAppDefaultSession     string
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	DispatchTimeout            time.Duration
	IntakeLockTTL              time.Duration
	IntakeLockWait             time.Duration
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOMaxFileSize           int64
	MinioBucketWebhookPayloads string
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// StorageConfig implementation
func (c *Config) GetDataDir() string { return c.DataDir }
func (c *Config) UsePostgres() bool  { return c.DatabaseURL != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// WebhookConfig implementation
func (c *Config) GetWebhookAPIKey() string     { return c.WebhookAPIKey }
func (c *Config) GetWebhookRatePerMinute() int { return c.WebhookRatePerMinute }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string            { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string            { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDefaultSession() string { return c.WhatsAppDefaultSession }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// IntakeConfig implementation
func (c *Config) GetDispatchTimeout() time.Duration { return c.DispatchTimeout }
func (c *Config) GetIntakeLockTTL() time.Duration   { return c.IntakeLockTTL }
func (c *Config) GetIntakeLockWait() time.Duration  { return c.IntakeLockWait }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketWebhookPayloads() string {
	return c.MinioBucketWebhookPayloads
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		DataDir:                    getEnv("DATA_DIR", "data"),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		WebhookAPIKey:              getEnv("WEBHOOK_API_KEY", ""),
		WebhookRatePerMinute:       mustInt(getEnv("WEBHOOK_RATE_PER_MINUTE", "120")),
		WhatsAppURL:                getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:                getEnv("WHATSAPP_KEY", ""),
		WhatsAppDefaultSession:     getEnv("WHATSAPP_DEFAULT_SESSION", "default"),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "intake"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DispatchTimeout:            mustDuration(getEnv("DISPATCH_TIMEOUT", "15s")),
		IntakeLockTTL:              mustDuration(getEnv("INTAKE_LOCK_TTL", "10s")),
		IntakeLockWait:             mustDuration(getEnv("INTAKE_LOCK_WAIT", "3s")),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:           mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "1048576")),
		MinioBucketWebhookPayloads: getEnv("MINIO_BUCKET_WEBHOOK_PAYLOADS", "webhook-payloads"),
		SMTPHost:                   getEnv("SMTP_HOST", ""),
		SMTPPort:                   mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Lead Desk"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.DatabaseURL == "" && strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("either DATABASE_URL or DATA_DIR is required")
	}
	if cfg.DispatchTimeout <= 0 {
		return nil, fmt.Errorf("DISPATCH_TIMEOUT must be a positive duration")
	}
	if cfg.IsSMTPEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if strings.EqualFold(cfg.Env, "production") && cfg.WebhookAPIKey == "" {
		return nil, fmt.Errorf("WEBHOOK_API_KEY is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
