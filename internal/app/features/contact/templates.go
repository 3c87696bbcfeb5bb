package contact

import (
	"embed"

	"github.com/dalemusser/contactsection/templates"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

// Template names.
const (
	pageTemplate = "contact_page"
	formSnippet  = "contact_form"
	formTarget   = "contact-form" // id of the element HTMX swaps
)

// TemplateSet returns the contact page templates for templates.Boot.
func TemplateSet() templates.Set {
	return templates.Set{
		Name:     "contact",
		FS:       templatesFS,
		Patterns: []string{"templates/*.gohtml"},
	}
}
