package email

import (
	"strings"
	"testing"
)

func TestRenderAdvisorLeadEscapesAndFillsBlanks(t *testing.T) {
	html, err := renderAdvisorLead(AdvisorLead{
		AdvisorName:  "Sadık",
		CustomerName: "<Ana>",
		Phone:        "905321234567",
		Source:       "webhook",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Hello Sadık") {
		t.Fatal("expected advisor greeting")
	}
	if strings.Contains(html, "<Ana>") || !strings.Contains(html, "&lt;Ana&gt;") {
		t.Fatal("expected customer name to be escaped")
	}
	if !strings.Contains(html, "<td>-</td>") {
		t.Fatal("expected placeholder for missing fields")
	}
}

func TestAdvisorLeadSubjectFallsBackToPhone(t *testing.T) {
	got := advisorLeadSubject(AdvisorLead{Phone: "905321234567"})
	if got != "New lead assigned: 905321234567" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	s := &SMTPSender{fromName: "CRM", fromEmail: "crm@example.com"}
	if _, err := s.buildMessage("not an address", "s", "b"); err == nil {
		t.Fatal("expected invalid recipient error")
	}
}
