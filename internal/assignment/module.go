// Package assignment provides the advisor rotation bounded context.
package assignment

import (
	"medcrm_backend/internal/assignment/handler"
	"medcrm_backend/internal/assignment/service"
	catrepo "medcrm_backend/internal/categories/repository"
	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
	"medcrm_backend/platform/validator"
)

// Module is the assignment bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the assignment service over the given stores.
func NewModule(settings service.SettingsStore, labels catrepo.LabelCursor, val *validator.Validator, m *metrics.Metrics, log *logger.Logger) *Module {
	svc := service.New(settings, labels, m, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignment"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts admin routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/lead-assignment", m.handler.GetSettings)
	ctx.Admin.PUT("/lead-assignment", m.handler.UpdateSettings)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
