package phone

import "testing"

func TestNormalizeTurkishMobile(t *testing.T) {
	cases := map[string]string{
		"05321234567":      "905321234567",
		"0532 123 45 67":   "905321234567",
		"(0532) 123-45-67": "905321234567",
		"5321234567":       "905321234567",
		"+90 532 123 4567": "905321234567",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeUKMobile(t *testing.T) {
	cases := map[string]string{
		"07911123456":     "447911123456",
		"7911123456":      "447911123456",
		"+44 7911 123456": "447911123456",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeLeavesUnknownFormatsAsDigits(t *testing.T) {
	if got := Normalize("+1 (415) 555-0100"); got != "14155550100" {
		t.Fatalf("expected digits only, got %q", got)
	}
	if got := Normalize("n/a"); got != "" {
		t.Fatalf("expected empty result for garbage, got %q", got)
	}
	if got := Normalize(""); got != "" {
		t.Fatalf("expected empty result for empty input, got %q", got)
	}
}

func TestNormalizeIsIdempotentForKnownPrefixes(t *testing.T) {
	inputs := []string{"905321234567", "447911123456", "0532 123 45 67", "07911 123456", "90", "44123"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeTurkishPattern(t *testing.T) {
	// every 05xxxxxxxxx input loses its trunk zero and gains the 90 country code
	for d := 0; d <= 9; d++ {
		in := "05" + string(rune('0'+d)) + "12345678"
		want := "905" + in[2:]
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLast9(t *testing.T) {
	if got := Last9("905321234567"); got != "321234567" {
		t.Fatalf("unexpected last9: %q", got)
	}
	if got := Last9("12345"); got != "12345" {
		t.Fatalf("short input should be returned as-is, got %q", got)
	}
}

func TestRegion(t *testing.T) {
	if got := Region("905321234567"); got != "TR" {
		t.Fatalf("expected TR, got %q", got)
	}
	if got := Region("447911123456"); got != "GB" {
		t.Fatalf("expected GB, got %q", got)
	}
}
