package notify

import (
	"strings"

	"availability-notifier/internal/models"
	"availability-notifier/pkg/registry"
)

// DefaultLanguage is used when a subscription's language has no template.
const DefaultLanguage = "en"

var builtinTemplates = []registry.MessageTemplate{
	{
		Language: "en",
		Subject:  "Available appointment slots",
		Header:   "Found available appointment slots:\n\n",
		Footer:   "\n\nWe'll stop notifying you for these locations now. Re-subscribe on the site if needed.",
	},
	{
		Language: "es",
		Subject:  "Citas disponibles",
		Header:   "Encontramos citas disponibles:\n\n",
		Footer:   "\n\nYa no te avisaremos sobre estos lugares. Vuelve a suscribirte en el sitio si lo necesitas.",
	},
}

// Templates holds the localized message pieces keyed by language.
type Templates struct {
	byLang   map[string]registry.MessageTemplate
	fallback string
}

// NewTemplates loads the built-in templates and overlays reg, which may be nil.
func NewTemplates(defaultLang string, reg *registry.TemplateRegistry) *Templates {
	t := &Templates{byLang: make(map[string]registry.MessageTemplate)}
	for _, m := range builtinTemplates {
		t.byLang[m.Language] = m
	}
	if reg != nil {
		for _, m := range reg.Templates {
			t.byLang[strings.ToLower(m.Language)] = m
		}
	}

	t.fallback = strings.ToLower(defaultLang)
	if _, ok := t.byLang[t.fallback]; !ok {
		t.fallback = DefaultLanguage
	}
	return t
}

// Resolve maps lang to a language with a template. ok is false when lang
// was not recognized and the fallback was used.
func (t *Templates) Resolve(lang string) (resolved string, ok bool) {
	l := strings.ToLower(strings.TrimSpace(lang))
	if _, found := t.byLang[l]; found {
		return l, true
	}
	return t.fallback, false
}

// Render builds the subject and body for a batch: header, one "name: url"
// line per location, footer.
func (t *Templates) Render(lang string, locations []models.BatchLocation) (subject, body string) {
	resolved, _ := t.Resolve(lang)
	tmpl := t.byLang[resolved]

	var b strings.Builder
	b.WriteString(tmpl.Header)
	for _, l := range locations {
		b.WriteString(l.Name)
		b.WriteString(": ")
		b.WriteString(l.URL)
		b.WriteString("\n")
	}
	b.WriteString(tmpl.Footer)
	return tmpl.Subject, b.String()
}
