package email

import "context"

// AdvisorLead is the lead summary mailed to an assigned advisor.
type AdvisorLead struct {
	AdvisorName  string
	CustomerName string
	Phone        string
	Email        string
	Category     string
	Source       string
}

type Sender interface {
	SendAdvisorLeadEmail(ctx context.Context, toEmail string, lead AdvisorLead) error
}

type NoopSender struct{}

func (NoopSender) SendAdvisorLeadEmail(context.Context, string, AdvisorLead) error { return nil }
