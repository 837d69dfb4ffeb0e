package webhook

// FacebookLeadPayload is the lead ad shape forwarded by Zapier or a Graph API
// relay: answers arrive as a name/values list.
type FacebookLeadPayload struct {
	LeadgenID    string          `json:"leadgen_id"`
	FormID       string          `json:"form_id"`
	CampaignName string          `json:"campaign_name"`
	AdName       string          `json:"ad_name"`
	FieldData    []FacebookField `json:"field_data"`
}

type FacebookField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// GoogleLeadPayload represents the webhook payload from Google Ads Lead Forms.
// https://developers.google.com/google-ads/webhook/docs/implementation
type GoogleLeadPayload struct {
	GoogleKey      string             `json:"google_key"`
	LeadID         string             `json:"lead_id"`
	CampaignID     int64              `json:"campaign_id"`
	FormID         int64              `json:"form_id"`
	GCLID          string             `json:"gclid"`
	UserColumnData []GoogleColumnData `json:"user_column_data"`
	IsTest         bool               `json:"is_test"`
	CampaignName   string             `json:"campaign_name"`
	FormName       string             `json:"form_name"`
}

// GoogleColumnData represents a single form field from Google Lead Form.
type GoogleColumnData struct {
	ColumnID    string `json:"column_id"`
	StringValue string `json:"string_value"`
	ColumnName  string `json:"column_name"`
}

// GoogleLeadResponse is returned to Google, which only checks for a 200.
type GoogleLeadResponse struct {
	CustomerID  string `json:"customerId,omitempty"`
	IsTest      bool   `json:"isTest"`
	IsDuplicate bool   `json:"isDuplicate"`
	Message     string `json:"message"`
}
