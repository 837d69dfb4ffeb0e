// Package webhook receives leads pushed by integrations (Zapier, Facebook lead
// ads relays, Google Ads lead forms) and feeds them to lead intake.
package webhook

import (
	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/platform/logger"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	apiKey  string
}

// NewModule wires the webhook handlers. archiver may be nil.
func NewModule(li LeadIntake, archiver *Archiver, apiKey string, log *logger.Logger) *Module {
	if apiKey == "" {
		log.Warn("WEBHOOK_API_KEY is empty, webhook routes are unauthenticated")
	}
	return &Module{
		handler: NewHandler(li, archiver, apiKey, log),
		apiKey:  apiKey,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the rate limited webhook group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/leads", APIKeyAuthMiddleware(m.apiKey), m.handler.HandleLead)
	ctx.Webhook.POST("/google-leads", m.handler.HandleGoogleLead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
