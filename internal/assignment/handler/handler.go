package handler

import (
	"github.com/gin-gonic/gin"

	"medcrm_backend/internal/assignment/service"
	"medcrm_backend/internal/assignment/transport"
	"medcrm_backend/platform/httpkit"
	"medcrm_backend/platform/validator"
)

// Handler handles HTTP requests for lead-assignment settings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new assignment handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetSettings returns the global rotation settings.
// GET /api/v1/admin/lead-assignment
func (h *Handler) GetSettings(c *gin.Context) {
	result, err := h.svc.GetSettings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateSettings replaces the global rotation settings.
// PUT /api/v1/admin/lead-assignment
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req transport.UpdateSettingsRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	result, err := h.svc.UpdateSettings(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
