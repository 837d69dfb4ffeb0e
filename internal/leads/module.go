// Package leads provides the lead intake bounded context.
package leads

import (
	"medcrm_backend/internal/events"
	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/internal/leads/handler"
	"medcrm_backend/internal/leads/intake"
	"medcrm_backend/internal/leads/repository"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
	"medcrm_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	intake  *intake.Service
	repo    repository.Repository
}

// Deps groups the collaborators the intake pipeline needs.
type Deps struct {
	Customers repository.Repository
	Campaigns intake.CampaignResolver
	Advisors  intake.AdvisorAssigner
	Lock      intake.Locker
	Bus       events.Bus
	Validator *validator.Validator
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// NewModule creates and initializes the leads module.
func NewModule(d Deps) *Module {
	svc := intake.New(d.Customers, d.Campaigns, d.Advisors, d.Lock, d.Bus, d.Validator, d.Metrics, d.Logger)
	return &Module{
		handler: handler.New(svc, d.Validator),
		intake:  svc,
		repo:    d.Customers,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Intake returns the orchestrator for other inbound channels.
func (m *Module) Intake() *intake.Service {
	return m.intake
}

// Repository returns the customer repository.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/leads", m.handler.CreateLead)
	ctx.V1.GET("/leads", m.handler.ListCustomers)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
