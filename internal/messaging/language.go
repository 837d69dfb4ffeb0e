// Package messaging composes the localized welcome message and the advisor
// notice for a newly created lead.
package messaging

import (
	"strings"
	"unicode"
)

// Language is a target language tag.
type Language string

const (
	LangFarsi   Language = "fa"
	LangArabic  Language = "ar"
	LangTurkish Language = "tr"
	LangRussian Language = "ru"
	LangGerman  Language = "de"
	LangEnglish Language = "en"
	LangUnknown Language = "unknown"
)

// Keywords are matched against the campaign name after it is lowercased and
// every non-alphanumeric run replaced by one space, with a space added at each
// end. A keyword padded with spaces therefore only matches a whole word.
var languageKeywords = []struct {
	lang     Language
	keywords []string
}{
	{LangFarsi, []string{"iran", "farsi", "persian", "tehran", " fa "}},
	{LangArabic, []string{"arab", "saudi", "dubai", "kuwait", "qatar", "iraq", "bahrain", " oman ", "gulf", " ksa ", " uae ", " ar "}},
	{LangTurkish, []string{"türkçe", "turkce", "türkiye", "turkiye", "yerli", " tr "}},
	{LangRussian, []string{"russia", "rusya", "kazakh", "ukrain", " cis ", " ru "}},
	{LangGerman, []string{"german", "deutsch", "almanya", "austria", "swiss", " de "}},
	{LangEnglish, []string{"english", "england", "ingiltere", "ireland", "europe", "australia", "canada", " usa ", " uk ", " us ", " en "}},
}

// DetectLanguage infers a language from a campaign display name. The first
// language with a matching keyword wins; no match yields LangUnknown.
func DetectLanguage(campaignName string) Language {
	name := normalizeForMatch(campaignName)
	if strings.TrimSpace(name) == "" {
		return LangUnknown
	}
	for _, entry := range languageKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.lang
			}
		}
	}
	return LangUnknown
}

// ParseLanguage maps a configured tag onto a Language. Empty stays empty.
func ParseLanguage(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch Language(tag) {
	case "":
		return ""
	case LangFarsi, LangArabic, LangTurkish, LangRussian, LangGerman, LangEnglish:
		return Language(tag)
	default:
		return LangUnknown
	}
}

func normalizeForMatch(s string) string {
	var b strings.Builder
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
