package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts per-page plain text from text-based PDFs.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) ExtractPages(_ context.Context, path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			// Per-page failures mean "no extractable text", not a
			// broken document.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}
	return pages, nil
}
