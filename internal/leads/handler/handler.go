package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medcrm_backend/internal/leads/domain"
	"medcrm_backend/internal/leads/intake"
	"medcrm_backend/internal/leads/transport"
	"medcrm_backend/platform/httpkit"
	"medcrm_backend/platform/validator"
)

// Handler handles HTTP requests for manual lead entry and customer listing.
type Handler struct {
	svc *intake.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *intake.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateLead accepts a manually entered lead.
// POST /api/v1/leads
func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.LeadPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	result, err := h.svc.Intake(c.Request.Context(), req, domain.SourceManual)
	if httpkit.HandleError(c, err) {
		return
	}
	WriteResult(c, result)
}

// ListCustomers returns customers newest first.
// GET /api/v1/leads
func (h *Handler) ListCustomers(c *gin.Context) {
	var req transport.ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", validator.FieldErrors(err))
		return
	}
	result, err := h.svc.ListCustomers(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// WriteResult renders an intake result: 201 with the customer, or 409 with the
// record the lead collided with.
func WriteResult(c *gin.Context, result intake.Result) {
	if !result.IsDuplicate() {
		httpkit.JSON(c, http.StatusCreated, result.Customer)
		return
	}
	existing := result.Existing
	httpkit.JSON(c, http.StatusConflict, transport.DuplicateResponse{
		Error:     "duplicate lead",
		Outcome:   string(result.Outcome),
		Automated: result.Outcome == intake.OutcomeDuplicateSkipped,
		Existing: transport.ExistingCustomer{
			ID:    existing.ID,
			Name:  existing.Name,
			Email: existing.Email,
			Phone: existing.Phone,
		},
	})
}
