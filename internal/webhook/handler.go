package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"medcrm_backend/internal/leads/domain"
	leadshandler "medcrm_backend/internal/leads/handler"
	"medcrm_backend/internal/leads/intake"
	"medcrm_backend/internal/leads/transport"
	"medcrm_backend/platform/httpkit"
	"medcrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

// LeadIntake runs a payload through the intake pipeline.
type LeadIntake interface {
	Intake(ctx context.Context, payload transport.LeadPayload, fallback domain.Source) (intake.Result, error)
}

type Handler struct {
	intake   LeadIntake
	archiver *Archiver
	apiKey   string
	log      *logger.Logger
}

func NewHandler(li LeadIntake, archiver *Archiver, apiKey string, log *logger.Logger) *Handler {
	return &Handler{intake: li, archiver: archiver, apiKey: apiKey, log: log}
}

func (h *Handler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read body", nil)
		return nil, false
	}
	if len(body) > maxBodyBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "payload too large", nil)
		return nil, false
	}
	return body, true
}

func (h *Handler) archive(c *gin.Context, kind string, body []byte) {
	if _, err := h.archiver.Archive(c.Request.Context(), kind, body); err != nil {
		h.log.WithContext(c.Request.Context()).Debug("continuing without archive", "kind", kind)
	}
}

// HandleLead accepts a lead from Zapier, a Facebook relay or a web form.
// POST /api/v1/webhook/leads
func (h *Handler) HandleLead(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	h.archive(c, "leads", body)

	payload, err := DecodeLead(body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	result, err := h.intake.Intake(c.Request.Context(), payload, domain.SourceWebhook)
	if httpkit.HandleError(c, err) {
		return
	}
	leadshandler.WriteResult(c, result)
}

// HandleGoogleLead processes Google Ads lead form payloads, which carry their
// own key in the body instead of a header.
// POST /api/v1/webhook/google-leads
func (h *Handler) HandleGoogleLead(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	var payload GoogleLeadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if h.apiKey != "" {
		if payload.GoogleKey == "" {
			httpkit.Error(c, http.StatusUnauthorized, "missing google_key", nil)
			return
		}
		if !keysEqual(payload.GoogleKey, h.apiKey) {
			httpkit.Error(c, http.StatusUnauthorized, "invalid google_key", nil)
			return
		}
	}
	h.archive(c, "google-leads", body)

	if payload.IsTest {
		c.JSON(http.StatusOK, GoogleLeadResponse{IsTest: true, Message: "Test lead received"})
		return
	}

	result, err := h.intake.Intake(c.Request.Context(), FromGoogle(payload), domain.SourceWebhook)
	if httpkit.HandleError(c, err) {
		return
	}

	// Google retries anything but a 200, so duplicates are acknowledged.
	if result.IsDuplicate() {
		c.JSON(http.StatusOK, GoogleLeadResponse{CustomerID: result.Existing.ID, IsDuplicate: true, Message: "Duplicate lead ignored"})
		return
	}
	c.JSON(http.StatusOK, GoogleLeadResponse{CustomerID: result.Customer.ID, Message: "Lead created"})
}
