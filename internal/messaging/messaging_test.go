package messaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesEveryOccurrence(t *testing.T) {
	got := Render("Hi {name}, from {user}", Vars{Name: "Ana", User: "Sadık"})
	assert.Equal(t, "Hi Ana, from Sadık", got)

	got = Render("{name} {name} {category}", Vars{Name: "Ana", Category: "Hair"})
	assert.Equal(t, "Ana Ana Hair", got)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := Render("Hi {name}, your {appointment} is set", Vars{Name: "Ana"})
	assert.Equal(t, "Hi Ana, your {appointment} is set", got)
}

func TestRenderDefaults(t *testing.T) {
	got := Render("{name}|{user}|{category}|{language}", Vars{Name: "  "})
	assert.Equal(t, "friend|our team|our treatments|en", got)
}

func TestRenderDoesNotExpandSubstitutedValues(t *testing.T) {
	got := Render("Hi {name}", Vars{Name: "{user}", User: "Sadık"})
	assert.Equal(t, "Hi {user}", got)
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]Language{
		"Hair Transplant - Iran 2024": LangFarsi,
		"Dental KSA Leads":            LangArabic,
		"Saç Ekimi Türkiye":           LangTurkish,
		"Rhinoplasty Russia":          LangRussian,
		"Haartransplantation Germany": LangGerman,
		"Hair UK Lookalike":           LangEnglish,
		"Dubai & UK combined":         LangArabic,
		"Campaign 42":                 LangUnknown,
		"":                            LangUnknown,
		"Women hair loss":             LangUnknown,
		"Duke campaign":               LangUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, DetectLanguage(name), "campaign %q", name)
	}
}

func TestSelectTemplateFallsBackToEnglish(t *testing.T) {
	c := NewComposer("default-session")
	for _, lang := range []Language{LangRussian, LangGerman, LangUnknown} {
		tmpl := c.SelectTemplate(lang, Advisor{Name: "Ana"})
		assert.Equal(t, builtinTemplates[LangEnglish], tmpl.Text)
		assert.Equal(t, "builtin:en", tmpl.Source)
		assert.Equal(t, "default-session", tmpl.Session)
	}
}

func TestSelectTemplateUsesAdvisorSession(t *testing.T) {
	c := NewComposer("default-session")
	tmpl := c.SelectTemplate(LangTurkish, Advisor{Name: "Ana", Session: "ana-phone"})
	assert.Equal(t, "ana-phone", tmpl.Session)
	assert.Equal(t, "builtin:tr", tmpl.Source)
}

func TestWelcomePrefersLabelMessage(t *testing.T) {
	c := NewComposer("default")
	msg, ok := c.Welcome(WelcomeInput{
		CustomerName: "Ana",
		CampaignName: "Hair Iran",
		Advisor:      Advisor{Name: "X"},
		LabelID:      "meta",
		LabelMessage: "Hi {name}, {user} here",
	})
	require.True(t, ok)
	assert.Equal(t, "Hi Ana, X here", msg.Text)
	assert.Equal(t, "label:meta", msg.Template)
}

func TestWelcomeUsesDetectedLanguage(t *testing.T) {
	c := NewComposer("default")
	msg, ok := c.Welcome(WelcomeInput{CustomerName: "Ali", CampaignName: "Dental Türkçe", Advisor: Advisor{Name: "Sadık"}})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg.Text, "Merhaba Ali"))
	assert.Equal(t, LangTurkish, msg.Language)
}

func TestWelcomeWhitespaceLabelMessageFallsBackToBuiltin(t *testing.T) {
	c := NewComposer("default")
	msg, ok := c.Welcome(WelcomeInput{LabelID: "l1", LabelMessage: " \n "})
	require.True(t, ok)
	assert.Equal(t, "builtin:en", msg.Template)
	assert.True(t, strings.HasPrefix(msg.Text, "Hello friend"))
}
