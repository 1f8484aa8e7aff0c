package themed

import (
	"embed"
	"io/fs"
)

//go:embed templates/knack/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in partials rooted at "knack/".
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
