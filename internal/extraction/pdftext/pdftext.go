// Package pdftext extracts per-page plain text from PDF binaries.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/fx"
)

// ErrNotPDF marks content whose signature is not a PDF header.
var ErrNotPDF = errors.New("not_a_pdf")

// pdfMagic is the 4-byte signature every PDF starts with.
var pdfMagic = []byte("%PDF")

// IsPDF checks the magic header without touching the rest of the file.
func IsPDF(head []byte) bool {
	return len(head) >= len(pdfMagic) && bytes.Equal(head[:len(pdfMagic)], pdfMagic)
}

// Extractor converts a PDF binary into per-page text. Implementations must be
// safe for concurrent use.
type Extractor interface {
	Pages(ctx context.Context, data []byte) ([]string, error)
}

// Module provides the default extractor.
var Module = fx.Provide(NewExtractor)

type extractor struct{}

// NewExtractor returns the ledongthuc/pdf-backed extractor.
func NewExtractor() Extractor { return extractor{} }

// Pages decodes every page's plain text. Pages that fail to decode yield an
// empty string rather than aborting the document.
func (extractor) Pages(ctx context.Context, data []byte) ([]string, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
