package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"medcrm_backend/internal/leads/transport"
)

// ExtractedFields holds the fields extracted from labelled form data.
type ExtractedFields struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	LeadFormID   string
	CampaignName string
}

// FullName joins first and last name.
func (e ExtractedFields) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ExtractFields performs best-effort field extraction from a flat map of
// label to value. Labels are matched after stripping case, spaces, dashes and
// underscores.
func ExtractFields(data map[string]string) ExtractedFields {
	var result ExtractedFields

	for key, value := range data {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(key))

		switch {
		case matchesAny(k, firstNamePatterns):
			result.FirstName = value
		case matchesAny(k, lastNamePatterns):
			result.LastName = value
		case matchesAny(k, fullNamePatterns):
			if result.FirstName == "" {
				result.FirstName = value
			}
		case matchesAny(k, emailPatterns):
			if emailRegex.MatchString(value) {
				result.Email = value
			}
		case matchesAny(k, phonePatterns):
			result.Phone = value
		case matchesAny(k, formIDPatterns):
			result.LeadFormID = value
		case matchesAny(k, campaignPatterns):
			result.CampaignName = value
		}
	}

	return result
}

var (
	firstNamePatterns = []string{"first_name", "firstname", "given_name", "fname", "ad"}
	lastNamePatterns  = []string{"last_name", "lastname", "family_name", "surname", "lname", "soyad", "soyadı"}
	fullNamePatterns  = []string{"name", "full_name", "fullname", "your_name", "ad_soyad", "adsoyad", "isim", "ad soyadı", "الاسم", "نام"}
	emailPatterns     = []string{"email", "e-mail", "e_mail", "email_address", "mail", "e-posta", "eposta"}
	phonePatterns     = []string{"phone", "phone_number", "phonenumber", "tel", "telephone", "mobile", "telefon", "telefon_numarası", "whatsapp", "gsm"}
	formIDPatterns    = []string{"form_id", "formid", "lead_form_id", "leadformid"}
	campaignPatterns  = []string{"campaign", "campaign_name", "campaignname", "kampanya"}
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var labelNormalizer = strings.NewReplacer("-", "", "_", "", " ", "")

func matchesAny(label string, patterns []string) bool {
	normalized := labelNormalizer.Replace(label)
	for _, p := range patterns {
		if normalized == labelNormalizer.Replace(p) {
			return true
		}
	}
	return false
}

// FromFacebook folds a lead ad payload into the canonical lead payload.
func FromFacebook(p FacebookLeadPayload) transport.LeadPayload {
	answers := make(map[string]string, len(p.FieldData))
	for _, f := range p.FieldData {
		if len(f.Values) > 0 {
			answers[f.Name] = f.Values[0]
		}
	}
	fields := ExtractFields(answers)

	campaign := p.CampaignName
	if campaign == "" {
		campaign = fields.CampaignName
	}
	formID := p.FormID
	if formID == "" {
		formID = fields.LeadFormID
	}
	return transport.LeadPayload{
		Name:         fields.FullName(),
		Email:        fields.Email,
		Phone:        fields.Phone,
		Source:       "facebook",
		LeadFormID:   formID,
		CampaignName: campaign,
	}
}

// FromGoogle folds a Google Ads lead form payload into the canonical lead
// payload. The numeric form id is matched against category lead form ids.
func FromGoogle(p GoogleLeadPayload) transport.LeadPayload {
	answers := make(map[string]string, len(p.UserColumnData))
	for _, col := range p.UserColumnData {
		key := col.ColumnID
		if key == "" {
			key = col.ColumnName
		}
		if key = normalizeGoogleColumn(key); key != "" {
			answers[key] = col.StringValue
		}
	}
	fields := ExtractFields(answers)

	out := transport.LeadPayload{
		Name:         fields.FullName(),
		Email:        fields.Email,
		Phone:        fields.Phone,
		Source:       "webhook",
		CampaignName: p.CampaignName,
	}
	if p.FormID != 0 {
		out.LeadFormID = strconv.FormatInt(p.FormID, 10)
	}
	return out
}

// normalizeGoogleColumn maps Google's column ids (FULL_NAME, PHONE_NUMBER,
// EMAIL, ...) onto the labels ExtractFields knows.
func normalizeGoogleColumn(column string) string {
	label := strings.ToLower(strings.TrimSpace(column))
	switch {
	case containsAny(label, "first"):
		return "first_name"
	case containsAny(label, "last"):
		return "last_name"
	case containsAny(label, "name"):
		return "full_name"
	case containsAny(label, "email"):
		return "email"
	case containsAny(label, "phone"):
		return "phone"
	default:
		return label
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// DecodeLead accepts the canonical lead payload, a Facebook field_data payload
// or a flat map of form labels, in that order of preference.
func DecodeLead(body []byte) (transport.LeadPayload, error) {
	var fb FacebookLeadPayload
	if err := json.Unmarshal(body, &fb); err != nil {
		return transport.LeadPayload{}, fmt.Errorf("decode webhook body: %w", err)
	}
	if len(fb.FieldData) > 0 {
		return FromFacebook(fb), nil
	}

	var payload transport.LeadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return transport.LeadPayload{}, fmt.Errorf("decode webhook body: %w", err)
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return payload, nil
	}
	labelled := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			labelled[k] = val
		case float64:
			labelled[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	fillFromLabels(&payload, ExtractFields(labelled))
	return payload, nil
}

func fillFromLabels(p *transport.LeadPayload, f ExtractedFields) {
	if p.Name == "" && p.FullName == "" && (p.Personal == nil || p.Personal.Name == "") {
		p.Name = f.FullName()
	}
	if p.Email == "" && (p.Personal == nil || p.Personal.Email == "") {
		p.Email = f.Email
	}
	if p.Phone == "" && p.PhoneNumber == "" && (p.Personal == nil || p.Personal.Phone == "") {
		p.Phone = f.Phone
	}
	if p.LeadFormID == "" && p.FormID == "" {
		p.LeadFormID = f.LeadFormID
	}
	if p.CampaignName == "" && p.Campaign == "" {
		p.CampaignName = f.CampaignName
	}
}
