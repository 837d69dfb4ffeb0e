// Package categories provides the category tree and label bounded context.
package categories

import (
	"medcrm_backend/internal/categories/handler"
	"medcrm_backend/internal/categories/repository"
	"medcrm_backend/internal/categories/service"
	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// Module is the categories bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates the categories module over any Repository implementation
// (Postgres or the JSON file store).
func NewModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := val.RegisterValidation("topparent", func(fl playground.FieldLevel) bool {
		return repository.TopParent(fl.Field().String()).Valid()
	}); err != nil {
		return nil, err
	}

	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "categories"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts admin routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cat := ctx.Admin.Group("/categories")
	cat.GET("", m.handler.ListCategories)
	cat.POST("", m.handler.CreateCategory)
	cat.PUT("/:id", m.handler.UpdateCategory)
	cat.DELETE("/:id", m.handler.DeleteCategory)
	cat.GET("/:id/chain", m.handler.ParentChain)
	cat.GET("/:id/label", m.handler.ResolveLabel)

	labels := ctx.Admin.Group("/labels")
	labels.GET("", m.handler.ListLabels)
	labels.POST("", m.handler.CreateLabel)
	labels.PUT("/:id", m.handler.UpdateLabel)
	labels.DELETE("/:id", m.handler.DeleteLabel)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
