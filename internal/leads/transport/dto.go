package transport

import (
	"strings"

	"medcrm_backend/internal/leads/domain"
	"medcrm_backend/platform/phone"
)

// LeadPayload accepts both the flat shape sent by integrations and the nested
// "personal" shape sent by the CRM screens.
type LeadPayload struct {
	Name          string           `json:"name"`
	FullName      string           `json:"full_name"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	PhoneNumber   string           `json:"phone_number"`
	Advisor       string           `json:"advisor"`
	Category      string           `json:"category"`
	Status        string           `json:"status"`
	Source        string           `json:"source"`
	LeadFormID    string           `json:"leadFormId"`
	FormID        string           `json:"form_id"`
	CampaignName  string           `json:"campaignName"`
	Campaign      string           `json:"campaign_name"`
	NoAutoWelcome bool             `json:"noAutoWelcome"`
	Personal      *PersonalPayload `json:"personal,omitempty"`
}

type PersonalPayload struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Facebook *FacebookPayload `json:"facebook,omitempty"`
}

type FacebookPayload struct {
	LeadFormID   string `json:"leadFormId"`
	CampaignName string `json:"campaignName"`
}

// Normalize folds every accepted shape into one canonical Lead. Flat fields
// win over nested ones when both are present.
func (p LeadPayload) Normalize(fallback domain.Source) domain.Lead {
	var personal PersonalPayload
	var facebook FacebookPayload
	if p.Personal != nil {
		personal = *p.Personal
		if p.Personal.Facebook != nil {
			facebook = *p.Personal.Facebook
		}
	}

	lead := domain.Lead{
		Name:          first(p.Name, p.FullName, personal.Name),
		Email:         strings.ToLower(first(p.Email, personal.Email)),
		Phone:         first(p.Phone, p.PhoneNumber, personal.Phone),
		Advisor:       first(p.Advisor),
		Category:      first(p.Category),
		Status:        first(p.Status),
		LeadFormID:    first(p.LeadFormID, p.FormID, facebook.LeadFormID),
		CampaignName:  first(p.CampaignName, p.Campaign, facebook.CampaignName),
		NoAutoWelcome: p.NoAutoWelcome,
	}
	lead.PhoneDigits = phone.Normalize(lead.Phone)

	src := fallback
	if facebook.LeadFormID != "" && fallback.IsAutomated() {
		src = domain.SourceFacebook
	}
	lead.Source = domain.ParseSource(p.Source, src)
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}
	return lead
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ListCustomersRequest pages the customer list.
type ListCustomersRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CustomerListResponse struct {
	Items      []domain.Customer `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// ExistingCustomer identifies the record a duplicate collided with.
type ExistingCustomer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DuplicateResponse is the 409 body.
type DuplicateResponse struct {
	Error     string           `json:"error"`
	Outcome   string           `json:"outcome"`
	Automated bool             `json:"automated"`
	Existing  ExistingCustomer `json:"existing"`
}
