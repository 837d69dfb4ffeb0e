// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"medcrm_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Intake Domain Events
// =============================================================================

// LeadCreated is published after a customer record has been durably written.
// It carries everything the welcome message and advisor notification need so
// subscribers never re-read the customer store.
type LeadCreated struct {
	BaseEvent
	CustomerID    string `json:"customerId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Source        string `json:"source"`
	Category      string `json:"category"`
	CampaignName  string `json:"campaignName"`
	NoAutoWelcome bool   `json:"noAutoWelcome"`

	// Advisor is empty when neither rotation produced a selection.
	Advisor        string `json:"advisor"`
	AdvisorPhone   string `json:"advisorPhone"`
	AdvisorEmail   string `json:"advisorEmail"`
	AdvisorSession string `json:"advisorSession"`

	// Label fields are empty when no active label applies to the category.
	LabelID       string `json:"labelId"`
	LabelMessage  string `json:"labelMessage"`
	LabelLanguage string `json:"labelLanguage"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// DuplicateLeadDetected is published when intake rejects a lead as a duplicate.
type DuplicateLeadDetected struct {
	BaseEvent
	ExistingID string `json:"existingId"`
	Source     string `json:"source"`
	Automated  bool   `json:"automated"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

func (e DuplicateLeadDetected) EventName() string { return "leads.lead.duplicate_detected" }
