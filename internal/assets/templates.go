package assets

import (
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
)

const embeddedPageTemplateName = "page.html.tmpl"

//go:embed templates/page.html.tmpl
var fallbackPageTemplate string

// ParsePageTemplate parses the page template at templatePath.
// An empty, missing or broken path falls back to the embedded template.
func ParsePageTemplate(templatePath string) (*template.Template, error) {
	return parseTemplateWithFallback(templatePath, embeddedPageTemplateName, fallbackPageTemplate)
}

func parseTemplateWithFallback(templatePath string, fallbackName string, fallbackTemplate string) (*template.Template, error) {
	// First, try to read from the filesystem
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackName).Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
