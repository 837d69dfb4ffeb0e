// Package domain holds the lead and customer model and the duplicate rules.
package domain

import (
	"strings"
	"time"

	"medcrm_backend/platform/phone"
)

// Source identifies the channel a lead arrived through.
type Source string

const (
	SourceManual   Source = "manual"
	SourceWebForm  Source = "web_form"
	SourceWebhook  Source = "webhook"
	SourceZapier   Source = "zapier"
	SourceFacebook Source = "facebook"
)

// ParseSource maps a free-form marker onto a Source. Empty input yields
// fallback; unrecognised markers are treated as a generic webhook.
func ParseSource(raw string, fallback Source) Source {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return fallback
	case v == string(SourceManual) || v == "crm" || v == "ui":
		return SourceManual
	case v == string(SourceWebForm) || v == "form" || v == "website":
		return SourceWebForm
	case strings.Contains(v, "zapier"):
		return SourceZapier
	case strings.Contains(v, "facebook") || v == "fb" || strings.Contains(v, "meta"):
		return SourceFacebook
	default:
		return SourceWebhook
	}
}

// IsAutomated reports whether the lead came from an unattended integration.
func (s Source) IsAutomated() bool {
	switch s {
	case SourceWebhook, SourceZapier, SourceFacebook:
		return true
	default:
		return false
	}
}

const StatusNew = "new"

// Lead is the canonical inbound lead after payload normalisation.
type Lead struct {
	Name          string
	Email         string
	Phone         string
	PhoneDigits   string
	Advisor       string
	Category      string
	Status        string
	LeadFormID    string
	CampaignName  string
	Source        Source
	NoAutoWelcome bool
}

// Customer is the CRM record created for an accepted lead.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PhoneDigits   string    `json:"phoneDigits"`
	Advisor       string    `json:"advisor"`
	Category      string    `json:"category"`
	CategoryID    string    `json:"categoryId,omitempty"`
	LabelID       string    `json:"labelId,omitempty"`
	Status        string    `json:"status"`
	Source        Source    `json:"source"`
	LeadFormID    string    `json:"leadFormId,omitempty"`
	CampaignName  string    `json:"campaignName,omitempty"`
	NoAutoWelcome bool      `json:"noAutoWelcome"`
	CreatedAt     time.Time `json:"createdAt"`
}

// minPhoneDigits is the shortest normalised phone that takes part in matching.
const minPhoneDigits = 6

// FindDuplicate returns the first existing customer sharing the incoming
// lead's email (trimmed, case-insensitive) or the last nine digits of its
// normalised phone. Phones shorter than six digits never match.
func FindDuplicate(incoming Lead, existing []Customer) *Customer {
	email := strings.ToLower(strings.TrimSpace(incoming.Email))
	digits := incoming.PhoneDigits
	if digits == "" {
		digits = phone.Normalize(incoming.Phone)
	}
	tail := ""
	if len(digits) >= minPhoneDigits {
		tail = phone.Last9(digits)
	}

	for i := range existing {
		c := &existing[i]
		if email != "" && strings.ToLower(strings.TrimSpace(c.Email)) == email {
			return c
		}
		if tail == "" {
			continue
		}
		other := c.PhoneDigits
		if other == "" {
			other = phone.Normalize(c.Phone)
		}
		if len(other) >= minPhoneDigits && phone.Last9(other) == tail {
			return c
		}
	}
	return nil
}
