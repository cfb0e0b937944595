package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

// WriteMarkdownPDF renders markdown content into a PDF file at pdfPath and returns its absolute path.
// Missing parent directories are created.
func WriteMarkdownPDF(content string, pdfPath string) (string, error) {
	if !strings.HasSuffix(pdfPath, ".pdf") {
		return "", fmt.Errorf("output file must have .pdf extension: %s", pdfPath)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("nothing to write to %s: content is empty", pdfPath)
	}
	if err := os.MkdirAll(filepath.Dir(pdfPath), 0755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(pdfPath), err)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process([]byte(content)); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}

	return absPath, nil
}
