package exporter

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func mustParseTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
}
