package transport

import (
	"embed"
	"html/template"

	"rice-leaf-inspector/internal/advisory"
	"rice-leaf-inspector/pkg/models"
)

const pageTemplateName = "index.html.tmpl"

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New(pageTemplateName).ParseFS(templateFS, "templates/*.tmpl"))

// pageView is the data behind the single page. At most one of Result and
// Error is set.
type pageView struct {
	Page      advisory.Page
	Result    *models.Diagnosis
	Error     string
	RequestID string
}
