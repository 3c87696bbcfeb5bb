// templates/funcs.go
package templates

import (
	"html/template"
	"strings"
)

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,
		// trustedURL marks a compile-time constant href (tel:, mailto:) as safe;
		// html/template would otherwise rewrite tel: links to #ZgotmplZ.
		// Never pass user input through it.
		"trustedURL": func(s string) template.URL { return template.URL(s) },
	}
}
