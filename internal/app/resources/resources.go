// Package resources embeds the site-wide layout shared by every page.
package resources

import (
	"embed"

	"github.com/dalemusser/contactsection/templates"
)

//go:embed templates/*.gohtml
var layoutFS embed.FS

// LayoutSet is the shared template set (the "layout" template).
func LayoutSet() templates.Set {
	return templates.Set{
		Name:     templates.SharedSet,
		FS:       layoutFS,
		Patterns: []string{"templates/*.gohtml"},
	}
}
