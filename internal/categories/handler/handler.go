package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medcrm_backend/internal/categories/service"
	"medcrm_backend/internal/categories/transport"
	"medcrm_backend/platform/httpkit"
	"medcrm_backend/platform/validator"
)

// Handler handles HTTP requests for category and label administration.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new categories handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListCategories returns the whole forest.
// GET /api/v1/admin/categories
func (h *Handler) ListCategories(c *gin.Context) {
	result, err := h.svc.ListCategories(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateCategory adds a category node.
// POST /api/v1/admin/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var req transport.CategoryRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	result, err := h.svc.CreateCategory(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateCategory replaces a category node.
// PUT /api/v1/admin/categories/:id
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req transport.CategoryRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	result, err := h.svc.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteCategory removes a leaf category.
// DELETE /api/v1/admin/categories/:id
func (h *Handler) DeleteCategory(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.DeleteCategory(c.Request.Context(), c.Param("id"))) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ParentChain returns the ancestors of a category, nearest first.
// GET /api/v1/admin/categories/:id/chain
func (h *Handler) ParentChain(c *gin.Context) {
	id := c.Param("id")
	chain, err := h.svc.ParentChain(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ParentChainResponse{ID: id, Chain: chain})
}

// ResolveLabel previews the label that governs a category.
// GET /api/v1/admin/categories/:id/label
func (h *Handler) ResolveLabel(c *gin.Context) {
	result, err := h.svc.PreviewLabel(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListLabels returns every label.
// GET /api/v1/admin/labels
func (h *Handler) ListLabels(c *gin.Context) {
	result, err := h.svc.ListLabels(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateLabel adds a label.
// POST /api/v1/admin/labels
func (h *Handler) CreateLabel(c *gin.Context) {
	var req transport.LabelRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	result, err := h.svc.CreateLabel(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateLabel replaces a label.
// PUT /api/v1/admin/labels/:id
func (h *Handler) UpdateLabel(c *gin.Context) {
	var req transport.LabelRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	result, err := h.svc.UpdateLabel(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteLabel removes a label.
// DELETE /api/v1/admin/labels/:id
func (h *Handler) DeleteLabel(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.DeleteLabel(c.Request.Context(), c.Param("id"))) {
		return
	}
	c.Status(http.StatusNoContent)
}
