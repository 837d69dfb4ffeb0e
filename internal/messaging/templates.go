package messaging

import (
	"fmt"
	"strings"
)

var builtinTemplates = map[Language]string{
	LangEnglish: "Hello {name}, thank you for your interest in {category}. I'm {user} and I will be your personal consultant. When would be a good time to talk?",
	LangTurkish: "Merhaba {name}, {category} ile ilgili talebiniz için teşekkür ederiz. Ben {user}, kişisel danışmanınız olacağım. Size ne zaman ulaşabiliriz?",
	LangArabic:  "مرحباً {name}، شكراً لاهتمامك بـ {category}. أنا {user} وسأكون مستشارك الشخصي. متى يناسبك أن نتحدث؟",
	LangFarsi:   "سلام {name}، از علاقه شما به {category} سپاسگزاریم. من {user} هستم و مشاور شخصی شما خواهم بود. چه زمانی برای گفتگو مناسب است؟",
}

// Template is the text to render and the outbound session to send it through.
type Template struct {
	Session string
	Text    string
	// Source names the template for logs: "builtin:<lang>" or "label:<id>".
	Source string
}

// Advisor is what template selection needs to know about the assigned advisor.
type Advisor struct {
	Name    string
	Session string
}

// Composer selects and renders outbound messages.
type Composer struct {
	defaultSession string
}

// NewComposer creates a composer falling back to defaultSession for advisors
// without their own session.
func NewComposer(defaultSession string) *Composer {
	return &Composer{defaultSession: strings.TrimSpace(defaultSession)}
}

// SelectTemplate returns the built-in template for lang, English for any tag
// without one, paired with the advisor's session or the default session.
func (c *Composer) SelectTemplate(lang Language, advisor Advisor) Template {
	text, ok := builtinTemplates[lang]
	if !ok {
		lang = LangEnglish
		text = builtinTemplates[LangEnglish]
	}
	return Template{
		Session: c.sessionFor(advisor),
		Text:    text,
		Source:  "builtin:" + string(lang),
	}
}

func (c *Composer) sessionFor(advisor Advisor) string {
	if s := strings.TrimSpace(advisor.Session); s != "" {
		return s
	}
	return c.defaultSession
}

// WelcomeInput is everything the welcome message depends on.
type WelcomeInput struct {
	CustomerName  string
	Category      string
	CampaignName  string
	Advisor       Advisor
	LabelID       string
	LabelMessage  string
	LabelLanguage string
}

// Message is a rendered outbound text.
type Message struct {
	Session  string
	Text     string
	Template string
	Language Language
}

// Welcome composes the welcome message. A label's own message wins over the
// built-in template. ok=false means there is nothing to send.
func (c *Composer) Welcome(in WelcomeInput) (Message, bool) {
	lang := ParseLanguage(in.LabelLanguage)
	if lang == "" || lang == LangUnknown {
		lang = DetectLanguage(in.CampaignName)
	}

	tmpl := c.SelectTemplate(lang, in.Advisor)
	if strings.TrimSpace(in.LabelMessage) != "" {
		tmpl.Text = in.LabelMessage
		tmpl.Source = "label:" + in.LabelID
	}

	varsLang := string(lang)
	if lang == LangUnknown {
		varsLang = ""
	}
	text := Render(tmpl.Text, Vars{
		Name:     in.CustomerName,
		User:     in.Advisor.Name,
		Category: in.Category,
		Language: varsLang,
	})
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}
	return Message{Session: tmpl.Session, Text: text, Template: tmpl.Source, Language: lang}, true
}

// AdvisorNotice composes the text sent to an advisor about a new lead.
func (c *Composer) AdvisorNotice(advisor Advisor, customerName, customerPhone, category, source string) Message {
	if customerName == "" {
		customerName = "-"
	}
	if category == "" {
		category = "-"
	}
	text := fmt.Sprintf("New lead assigned to %s\nName: %s\nPhone: %s\nCategory: %s\nSource: %s",
		advisor.Name, customerName, customerPhone, category, source)
	return Message{Session: c.sessionFor(advisor), Text: text, Template: "advisor_notice"}
}
