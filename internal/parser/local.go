package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"cpic-rag/internal/models"
)

// LocalPDFParser extracts plain text page by page without calling out to the
// Unstructured service. Used when no API key is configured; each page becomes
// one NarrativeText element.
type LocalPDFParser struct{}

func NewLocalPDFParser() *LocalPDFParser {
	return &LocalPDFParser{}
}

func (p *LocalPDFParser) Parse(_ context.Context, pdfPath string) ([]models.RawElement, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %v", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %v", err)
	}

	filename := filepath.Base(pdfPath)
	var elements []models.RawElement
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %v", i, err)
		}
		elements = append(elements, models.RawElement{
			Type: "NarrativeText",
			Text: text,
			Metadata: models.ElementMetadata{
				PageNumber: i,
				Filename:   filename,
			},
		})
	}
	return elements, nil
}
