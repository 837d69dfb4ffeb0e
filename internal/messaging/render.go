package messaging

import "strings"

// Vars are the placeholder values for Render.
type Vars struct {
	Name     string
	User     string
	Category string
	Language string
}

const (
	defaultName     = "friend"
	defaultUser     = "our team"
	defaultCategory = "our treatments"
	defaultLanguage = "en"
)

// Render replaces every {name}, {user}, {category} and {language} in tmpl.
// Other placeholders are left as they are and substituted values are never
// expanded again.
func Render(tmpl string, vars Vars) string {
	r := strings.NewReplacer(
		"{name}", orDefault(vars.Name, defaultName),
		"{user}", orDefault(vars.User, defaultUser),
		"{category}", orDefault(vars.Category, defaultCategory),
		"{language}", orDefault(vars.Language, defaultLanguage),
	)
	return r.Replace(tmpl)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
