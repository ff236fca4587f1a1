package processor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/config"
	"github.com/courierpay/courierpay/internal/extraction"
	"github.com/courierpay/courierpay/internal/extraction/pdftext"
)

// stubExtractor treats file data as the document text, split into pages on
// form feeds. Sentinel prefixes trigger failure modes.
type stubExtractor struct{}

func (stubExtractor) Pages(_ context.Context, data []byte) ([]string, error) {
	text := string(data)
	switch {
	case strings.HasPrefix(text, "PANIC"):
		panic("decoder blew up")
	case strings.HasPrefix(text, "FAIL"):
		return nil, pdftext.ErrNotPDF
	}
	return strings.Split(text, "\f"), nil
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	holder := config.NewStaticExtractionConfigHolder(config.DefaultExtractionConfig())
	clk := clock.NewFakeClock(time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC))
	return NewProcessor(ProcessorParam{
		Log:       zap.NewNop(),
		Cfg:       holder,
		Extractor: stubExtractor{},
		Runsheet:  extraction.NewRunsheetParser(holder, clk),
		Invoice:   extraction.NewInvoiceParser(holder),
	})
}

func pdfFile(name, text string) FileInput {
	return FileInput{
		Name:     name,
		Size:     int64(len(text)),
		MimeType: "application/pdf",
		Data:     []byte(text),
	}
}

const (
	runsheetText = "Runsheet Date: 01/07/2025 1 1234567 Delivery Depot 2 7654321 Delivery Unit"
	invoiceText  = "01/07/25 08:30 Leeds £45.50 Standard Docket Total: £45.50"
)

func TestValidateBatchEmpty(t *testing.T) {
	v := newTestProcessor(t).ValidateBatch(nil)
	require.False(t, v.OK())
	assert.Contains(t, v.Errors[0], ErrEmptyBatch.Error())
}

func TestValidateBatchDuplicateNamesCaseInsensitive(t *testing.T) {
	v := newTestProcessor(t).ValidateBatch([]FileInput{
		pdfFile("Runsheet.pdf", runsheetText),
		pdfFile("runsheet.PDF", runsheetText),
	})
	require.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "duplicate file name")
}

func TestValidateBatchSizeLimit(t *testing.T) {
	p := newTestProcessor(t)
	file := pdfFile("runsheet.pdf", runsheetText)
	file.Size = config.DefaultExtractionConfig().MaxFileSizeBytes + 1

	v := p.ValidateBatch([]FileInput{file})
	require.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "byte limit")
}

func TestValidateBatchNonPDF(t *testing.T) {
	p := newTestProcessor(t)

	file := pdfFile("notes.txt", "plain text")
	file.MimeType = "text/plain"
	v := p.ValidateBatch([]FileInput{file})
	require.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "not a PDF")

	// A .pdf name with an odd MIME type is workable: warn, don't block.
	file = pdfFile("runsheet.pdf", runsheetText)
	file.MimeType = "application/octet-stream"
	v = p.ValidateBatch([]FileInput{file})
	assert.True(t, v.OK())
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "treating as PDF")
}

func TestProcessSkipsParsingWhenBatchInvalid(t *testing.T) {
	p := newTestProcessor(t)

	result := p.Process(context.Background(), []FileInput{
		pdfFile("runsheet.pdf", runsheetText),
		pdfFile("RUNSHEET.pdf", runsheetText),
	})

	assert.False(t, result.Validation.OK())
	require.Len(t, result.Files, 2)
	for _, f := range result.Files {
		assert.Equal(t, extraction.DocTypeUnknown, f.Type)
		assert.Contains(t, f.Error, "duplicate file name")
		assert.Nil(t, f.Runsheet)
	}
}

func TestProcessClassifiesByFilename(t *testing.T) {
	p := newTestProcessor(t)

	result := p.Process(context.Background(), []FileInput{
		pdfFile("Runsheet_July.pdf", runsheetText),
		pdfFile("invoice_july.pdf", invoiceText),
	})

	require.True(t, result.Validation.OK())
	require.Len(t, result.Files, 2)

	rs := result.Files[0]
	assert.Equal(t, extraction.DocTypeRunsheet, rs.Type)
	require.NotNil(t, rs.Runsheet)
	assert.Equal(t, 2, rs.Runsheet.Total)

	inv := result.Files[1]
	assert.Equal(t, extraction.DocTypeInvoice, inv.Type)
	require.NotNil(t, inv.Invoice)
	require.Len(t, inv.Invoice.Entries, 1)
	require.NotNil(t, inv.Invoice.Valid)
	assert.True(t, *inv.Invoice.Valid)

	assert.Equal(t, 1, result.Summary.RunsheetOK)
	assert.Equal(t, 1, result.Summary.InvoiceOK)
	assert.Equal(t, 0, result.Summary.Unclassified)
}

func TestProcessAmbiguousRunsheetWinsTie(t *testing.T) {
	p := newTestProcessor(t)

	// Neither the name nor the content carries routing keywords; both parsers
	// run and the runsheet's consignment count decides.
	text := "Date: 01/07/2025 1 1234567 Delivery Depot"
	result := p.Process(context.Background(), []FileInput{pdfFile("scan_001.pdf", text)})

	require.Len(t, result.Files, 1)
	assert.Equal(t, extraction.DocTypeRunsheet, result.Files[0].Type)
	require.NotNil(t, result.Files[0].Runsheet)
	assert.Equal(t, 1, result.Files[0].Runsheet.Total)
}

func TestProcessAmbiguousInvoiceWinsOnMoreEntries(t *testing.T) {
	p := newTestProcessor(t)

	text := "01/07/25 08:30 Leeds £45.50 Standard 02/07/25 09:15 York £38.00 Standard"
	result := p.Process(context.Background(), []FileInput{pdfFile("statement_july.pdf", text)})

	require.Len(t, result.Files, 1)
	assert.Equal(t, extraction.DocTypeInvoice, result.Files[0].Type)
	require.NotNil(t, result.Files[0].Invoice)
	assert.Len(t, result.Files[0].Invoice.Entries, 2)
}

func TestProcessUnrecognizedDocument(t *testing.T) {
	p := newTestProcessor(t)

	result := p.Process(context.Background(), []FileInput{pdfFile("scan.pdf", "nothing useful here")})

	require.Len(t, result.Files, 1)
	assert.Equal(t, extraction.DocTypeUnknown, result.Files[0].Type)
	assert.Contains(t, result.Files[0].Error, "unrecognized document")
	assert.Equal(t, 1, result.Summary.Unclassified)
}

func TestProcessExtractionFailureIsPerFile(t *testing.T) {
	p := newTestProcessor(t)

	result := p.Process(context.Background(), []FileInput{
		pdfFile("broken.pdf", "FAIL"),
		pdfFile("Runsheet_July.pdf", runsheetText),
	})

	require.Len(t, result.Files, 2)
	assert.Equal(t, pdftext.ErrNotPDF.Error(), result.Files[0].Error)
	assert.True(t, result.Files[1].OK())
	assert.Equal(t, 1, result.Summary.RunsheetOK)
	assert.Equal(t, 1, result.Summary.Unclassified)
}

func TestProcessPanicIsolation(t *testing.T) {
	p := newTestProcessor(t)

	result := p.Process(context.Background(), []FileInput{
		pdfFile("cursed.pdf", "PANIC"),
		pdfFile("Runsheet_July.pdf", runsheetText),
	})

	require.Len(t, result.Files, 2)
	assert.Equal(t, extraction.DocTypeUnknown, result.Files[0].Type)
	assert.Contains(t, result.Files[0].Error, "internal error")
	assert.True(t, result.Files[1].OK())
}
