package transport

import (
	"encoding/json"
	"testing"

	"medcrm_backend/internal/leads/domain"
)

func TestNormalizeNestedPayload(t *testing.T) {
	raw := `{
		"personal": {
			"name": " Ana ",
			"email": "ANA@x.com",
			"phone": "0532 123 45 67",
			"facebook": {"leadFormId": "F123", "campaignName": "Hair Iran"}
		},
		"noAutoWelcome": true
	}`
	var p LeadPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	lead := p.Normalize(domain.SourceWebhook)

	if lead.Name != "Ana" || lead.Email != "ana@x.com" {
		t.Fatalf("unexpected identity fields %+v", lead)
	}
	if lead.PhoneDigits != "905321234567" {
		t.Fatalf("expected normalized phone, got %q", lead.PhoneDigits)
	}
	if lead.LeadFormID != "F123" || lead.CampaignName != "Hair Iran" {
		t.Fatalf("expected facebook fields, got %+v", lead)
	}
	if lead.Source != domain.SourceFacebook {
		t.Fatalf("expected facebook source, got %q", lead.Source)
	}
	if !lead.NoAutoWelcome || lead.Status != domain.StatusNew {
		t.Fatalf("unexpected flags %+v", lead)
	}
}

func TestNormalizeFlatFieldsWin(t *testing.T) {
	p := LeadPayload{
		Name:     "Flat",
		Personal: &PersonalPayload{Name: "Nested", Email: "nested@x.com"},
		Source:   "zapier",
		FormID:   "F9",
	}
	lead := p.Normalize(domain.SourceManual)
	if lead.Name != "Flat" || lead.Email != "nested@x.com" || lead.LeadFormID != "F9" {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Source != domain.SourceZapier {
		t.Fatalf("expected zapier, got %q", lead.Source)
	}
}

func TestNormalizeManualKeepsManualSource(t *testing.T) {
	p := LeadPayload{Name: "Ana", Personal: &PersonalPayload{Facebook: &FacebookPayload{LeadFormID: "F1"}}}
	if got := p.Normalize(domain.SourceManual).Source; got != domain.SourceManual {
		t.Fatalf("expected manual, got %q", got)
	}
}
