package domain

import "testing"

func TestFindDuplicateByEmailIgnoresCaseAndSpace(t *testing.T) {
	existing := []Customer{{ID: "1", Email: "Ana@Example.com "}}
	got := FindDuplicate(Lead{Email: "  ana@example.COM"}, existing)
	if got == nil || got.ID != "1" {
		t.Fatalf("expected match on email, got %+v", got)
	}
}

func TestFindDuplicateEmptyEmailNeverMatches(t *testing.T) {
	existing := []Customer{{ID: "1", Email: ""}}
	if got := FindDuplicate(Lead{Email: " "}, existing); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestFindDuplicateByPhoneTailAcrossCountryPrefix(t *testing.T) {
	existing := []Customer{{ID: "1", Phone: "+90 532 123 45 67"}}
	got := FindDuplicate(Lead{Phone: "0532-123-4567"}, existing)
	if got == nil || got.ID != "1" {
		t.Fatalf("expected match on phone tail, got %+v", got)
	}

	// Only the prefix differs: 49 vs 90 with the same trailing nine digits.
	got = FindDuplicate(Lead{Phone: "+49 532 123 45 67"}, existing)
	if got == nil {
		t.Fatal("expected match when only the country code differs")
	}
}

func TestFindDuplicateShortPhonesNeverMatch(t *testing.T) {
	existing := []Customer{{ID: "1", Phone: "12345"}}
	if got := FindDuplicate(Lead{Phone: "12345"}, existing); got != nil {
		t.Fatalf("expected no match for 5-digit phones, got %+v", got)
	}

	existing = []Customer{{ID: "2", Phone: "905321234567"}}
	if got := FindDuplicate(Lead{Phone: "4567"}, existing); got != nil {
		t.Fatalf("expected no match when incoming has fewer than 6 digits, got %+v", got)
	}
}

func TestFindDuplicateDifferentPeople(t *testing.T) {
	existing := []Customer{{ID: "1", Email: "a@x.com", Phone: "905321234567"}}
	if got := FindDuplicate(Lead{Email: "b@x.com", Phone: "905329999999"}, existing); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestSourceIsAutomated(t *testing.T) {
	for _, raw := range []string{"webhook", "Zapier", "facebook_lead_ads", "something-else"} {
		if !ParseSource(raw, SourceManual).IsAutomated() {
			t.Fatalf("expected %q to be automated", raw)
		}
	}
	for _, raw := range []string{"", "manual", "form"} {
		if ParseSource(raw, SourceManual).IsAutomated() {
			t.Fatalf("expected %q to be manual", raw)
		}
	}
}
