package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/courierpay/courierpay/internal/config"
	"github.com/courierpay/courierpay/internal/extraction"
	"github.com/courierpay/courierpay/internal/extraction/pdftext"
	"github.com/courierpay/courierpay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Processor classifies and parses file batches synchronously.
type Processor struct {
	log       *zap.Logger
	cfg       *config.ExtractionConfigHolder
	extractor pdftext.Extractor
	runsheet  *extraction.RunsheetParser
	invoice   *extraction.InvoiceParser
}

type ProcessorParam struct {
	fx.In

	Log       *zap.Logger
	Cfg       *config.ExtractionConfigHolder
	Extractor pdftext.Extractor
	Runsheet  *extraction.RunsheetParser
	Invoice   *extraction.InvoiceParser
}

func NewProcessor(p ProcessorParam) *Processor {
	return &Processor{
		log:       p.Log.Named("processor"),
		cfg:       p.Cfg,
		extractor: p.Extractor,
		runsheet:  p.Runsheet,
		invoice:   p.Invoice,
	}
}

// Process validates the batch, then parses each file in order. When batch
// validation carries hard errors, no file is parsed and every file surfaces
// the batch errors.
func (p *Processor) Process(ctx context.Context, files []FileInput) *ProcessingResult {
	result := &ProcessingResult{
		Summary:    Summary{Total: len(files)},
		Validation: p.ValidateBatch(files),
	}

	if !result.Validation.OK() {
		for _, file := range files {
			result.Files = append(result.Files, FileResult{
				Name:  file.Name,
				Type:  extraction.DocTypeUnknown,
				Error: strings.Join(result.Validation.Errors, "; "),
			})
		}
		return result
	}

	metrics.Processing().IncBatch()
	for _, file := range files {
		fileResult := p.processFile(ctx, file)
		result.Files = append(result.Files, fileResult)
		tally(&result.Summary, fileResult)
	}
	return result
}

// ValidateBatch checks batch-level invariants. Size and name-extension
// problems are hard errors; an odd but workable MIME type only warns when the
// filename still looks like a PDF.
func (p *Processor) ValidateBatch(files []FileInput) BatchValidation {
	var v BatchValidation
	if len(files) == 0 {
		v.Errors = append(v.Errors, ErrEmptyBatch.Error())
		return v
	}

	maxSize := p.cfg.Current().MaxFileSizeBytes
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		lower := strings.ToLower(file.Name)
		if seen[lower] {
			v.Errors = append(v.Errors, fmt.Sprintf("duplicate file name in batch: %s", file.Name))
		}
		seen[lower] = true

		if file.Size > maxSize {
			v.Errors = append(v.Errors, fmt.Sprintf("%s exceeds the %d byte limit", file.Name, maxSize))
		}
		isPDFName := strings.HasSuffix(lower, ".pdf")
		isPDFMime := file.MimeType == "application/pdf"
		switch {
		case !isPDFName && !isPDFMime:
			v.Errors = append(v.Errors, fmt.Sprintf("%s is not a PDF", file.Name))
		case !isPDFMime:
			v.Warnings = append(v.Warnings, fmt.Sprintf("%s declares MIME type %q, treating as PDF", file.Name, file.MimeType))
		}
	}
	return v
}

// processFile never panics out: unexpected extractor or parser failures are
// converted into a per-file error entry.
func (p *Processor) processFile(ctx context.Context, file FileInput) (result FileResult) {
	result = FileResult{Name: file.Name, Type: extraction.DocTypeUnknown}
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("file processing panicked",
				zap.String("file", file.Name),
				zap.Any("panic", r),
			)
			metrics.Processing().IncParseFailure("panic")
			result = FileResult{
				Name:  file.Name,
				Type:  extraction.DocTypeUnknown,
				Error: fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	pages, err := p.extractor.Pages(ctx, file.Data)
	if err != nil {
		metrics.Processing().IncParseFailure("text_extraction")
		result.Error = err.Error()
		return result
	}

	preview := p.preview(pages)
	text := strings.Join(pages, "\n")

	switch {
	case p.runsheet.CanParse(file.Name, preview):
		result = p.parseRunsheet(file.Name, pages)
	case p.invoice.CanParse(file.Name, preview):
		result = p.parseInvoice(file.Name, text)
	default:
		result = p.parseAmbiguous(file.Name, pages, text)
	}

	metrics.Processing().ObserveExtraction(string(result.Type), time.Since(started))
	return result
}

func (p *Processor) parseRunsheet(name string, pages []string) FileResult {
	record, err := p.runsheet.Parse(pages, name)
	if err != nil {
		metrics.Processing().IncParseFailure(err.Error())
		return FileResult{Name: name, Type: extraction.DocTypeRunsheet, Error: err.Error()}
	}
	return FileResult{
		Name:     name,
		Type:     extraction.DocTypeRunsheet,
		Runsheet: record,
		Warnings: record.Warnings,
	}
}

func (p *Processor) parseInvoice(name, text string) FileResult {
	record, err := p.invoice.Parse(text)
	if err != nil {
		metrics.Processing().IncParseFailure(err.Error())
		return FileResult{Name: name, Type: extraction.DocTypeInvoice, Error: err.Error()}
	}
	return FileResult{
		Name:     name,
		Type:     extraction.DocTypeInvoice,
		Invoice:  record,
		Warnings: record.Warnings,
	}
}

// parseAmbiguous runs both parsers and keeps whichever produced more
// structured data points: consignments against invoice entries, ties going to
// the runsheet.
func (p *Processor) parseAmbiguous(name string, pages []string, text string) FileResult {
	runsheetResult := p.parseRunsheet(name, pages)
	invoiceResult := p.parseInvoice(name, text)

	runsheetPoints := 0
	if runsheetResult.OK() {
		runsheetPoints = runsheetResult.Runsheet.Total
	}
	invoicePoints := 0
	if invoiceResult.OK() {
		invoicePoints = len(invoiceResult.Invoice.Entries)
	}

	switch {
	case runsheetPoints == 0 && invoicePoints == 0:
		return FileResult{
			Name:  name,
			Type:  extraction.DocTypeUnknown,
			Error: "unrecognized document: " + runsheetResult.Error,
		}
	case invoicePoints > runsheetPoints:
		return invoiceResult
	default:
		return runsheetResult
	}
}

func (p *Processor) preview(pages []string) string {
	limit := p.cfg.Current().ContentPreviewChars
	text := strings.Join(pages, "\n")
	if len(text) > limit {
		text = text[:limit]
	}
	return text
}

func tally(s *Summary, r FileResult) {
	outcome := "ok"
	if !r.OK() {
		outcome = "fail"
	}
	metrics.Processing().IncFileProcessed(string(r.Type), outcome)

	switch r.Type {
	case extraction.DocTypeRunsheet:
		if r.OK() {
			s.RunsheetOK++
		} else {
			s.RunsheetFail++
		}
	case extraction.DocTypeInvoice:
		if r.OK() {
			s.InvoiceOK++
		} else {
			s.InvoiceFail++
		}
	default:
		s.Unclassified++
	}
}
