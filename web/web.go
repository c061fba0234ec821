// Package web embeds the html templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/jon4hz/khaki/internal/api/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// FuncMap returns the functions available in templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatHours": models.FormatHours,
	}
}

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// Static returns the static assets rooted at the static directory.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
