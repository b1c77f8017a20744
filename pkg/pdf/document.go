package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// PDFDocument wraps a pdfcpu context. It is the writer for the numbered
// output and also a last-resort extraction backend that tokenises the decoded
// content streams itself.
type PDFDocument struct {
	ctx    *model.Context
	config extractionConfig

	overlayFont *types.IndirectRef
}

// Open parses an in-memory PDF with pdfcpu
func Open(data []byte, opts ...ExtractionOption) (*PDFDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	return &PDFDocument{
		ctx:    ctx,
		config: newExtractionConfig(opts),
	}, nil
}

// PageCount returns the total number of pages
func (d *PDFDocument) PageCount() int {
	return d.ctx.PageCount
}

// Backend names the library used to read the document
func (d *PDFDocument) Backend() string {
	return "pdfcpu"
}

// PageGeometry returns the MediaBox of a page (1-based)
func (d *PDFDocument) PageGeometry(pageNumber int) (PageGeometry, error) {
	page, err := d.page(pageNumber)
	if err != nil {
		return PageGeometry{}, err
	}
	return page.geometry(), nil
}

// Fragments tokenises the page's content streams and returns its text
// fragments. Fonts with a ToUnicode CMap are decoded; other strings are
// returned as raw bytes.
func (d *PDFDocument) Fragments(pageNumber int) ([]content.Fragment, error) {
	page, err := d.page(pageNumber)
	if err != nil {
		return nil, err
	}

	streams, err := page.contentStreams()
	if err != nil {
		return nil, err
	}

	extractor := content.NewExtractor(d.config.extractorOptions(page.fontResolver())...)
	for i, data := range streams {
		if err := extractor.ExtractFromBytes(data); err != nil {
			return nil, fmt.Errorf("page %d content stream %d: %w", pageNumber, i, err)
		}
	}

	return extractor.Fragments(), nil
}

// Write serialises the document
func (d *PDFDocument) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// Close releases resources associated with the document
func (d *PDFDocument) Close() error {
	d.ctx = nil
	return nil
}

func (d *PDFDocument) page(pageNumber int) (*PDFCPUPage, error) {
	if d.ctx == nil {
		return nil, fmt.Errorf("document is closed")
	}
	return NewPDFCPUPage(d.ctx, pageNumber)
}
