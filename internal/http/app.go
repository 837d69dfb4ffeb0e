// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"medcrm_backend/platform/config"
	"medcrm_backend/platform/events"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.WebhookConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and webhook settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks. Nil means always healthy (JSON file store).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Metrics records request latency; Gatherer backs the /metrics endpoint.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
