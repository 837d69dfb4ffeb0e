// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	turkeyPrefix = "90"
	ukPrefix     = "44"
)

// Normalize canonicalizes a free-form phone number into an international digit
// string without a leading "+". Numbers that already carry a known country
// prefix are returned as-is; Turkish and UK national mobile formats get their
// country code. Anything else is returned as plain digits.
func Normalize(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, turkeyPrefix) || strings.HasPrefix(digits, ukPrefix) {
		return digits
	}

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "05"):
		return turkeyPrefix + digits[1:]
	case len(digits) == 10 && strings.HasPrefix(digits, "5"):
		return turkeyPrefix + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "07"):
		return ukPrefix + digits[1:]
	case len(digits) == 10 && strings.HasPrefix(digits, "7"):
		return ukPrefix + digits
	}
	return digits
}

// Digits strips every non-digit character.
func Digits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// Last9 returns the trailing nine digits, or the whole string when shorter.
func Last9(digits string) string {
	if len(digits) <= 9 {
		return digits
	}
	return digits[len(digits)-9:]
}

// E164 formats normalized digits as E.164. If parsing fails, it returns "+" + digits.
func E164(digits string) string {
	if digits == "" {
		return ""
	}
	number, err := phonenumbers.Parse("+"+digits, "")
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "+" + digits
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Region returns the ISO region for normalized digits, or "" when unknown.
func Region(digits string) string {
	if digits == "" {
		return ""
	}
	number, err := phonenumbers.Parse("+"+digits, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(number)
}
