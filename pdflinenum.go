// Package pdflinenum adds line numbers to the pages of a PDF, placing each
// number at the vertical position of a text line found on the page.
package pdflinenum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
	"github.com/pyhub-apps/pdflinenum/pkg/extractors"
	"github.com/pyhub-apps/pdflinenum/pkg/pdf"
)

// Re-export types from the internal packages for the public API
type (
	Fragment = content.Fragment
	Line     = extractors.Line
	Label    = pdf.Label
	Document = pdf.Document
)

// GroupLines clusters fragments into lines; see extractors.GroupLines
var GroupLines = extractors.GroupLines

// PageReport summarises the numbering of one page
type PageReport struct {
	Page   int
	Width  float64
	Height float64
	Lines  int
	First  int // First number used on the page
	Last   int // Last number used; First-1 when the page has no lines
}

// Report summarises a run
type Report struct {
	Backend string
	Pages   []PageReport
	Total   int
}

// OpenSource opens data for text extraction. It tries ledongthuc/pdf first,
// then dslipak/pdf, and finally falls back to the pdfcpu document.
func OpenSource(data []byte, fallback *pdf.PDFDocument, opts ...pdf.ExtractionOption) pdf.Document {
	doc, err := pdf.OpenWithLedongthuc(data, opts...)
	if err == nil {
		return doc
	}

	doc, err = pdf.OpenWithDslipak(data, opts...)
	if err == nil {
		return doc
	}

	return fallback
}

// Number reads inPath, numbers its lines and writes the result to outPath.
// Nothing is written unless the whole document was processed.
func Number(ctx context.Context, inPath, outPath string, opts ...Option) (Report, error) {
	o, err := newOptions(opts)
	if err != nil {
		return Report{}, classify(err)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, ErrInputNotFound{Path: inPath}
		}
		return Report{}, classify(fmt.Errorf("read input: %w", err))
	}

	var out bytes.Buffer
	report, err := NumberDocument(ctx, data, &out, opts...)
	if err != nil {
		return report, classify(err)
	}

	if err := os.WriteFile(outPath, out.Bytes(), 0o644); err != nil {
		return report, classify(fmt.Errorf("write output: %w", err))
	}

	o.Logger.Info("output saved", "path", outPath)
	if o.Continuous {
		o.Logger.Info("total lines numbered", "total", report.Total)
	}

	return report, nil
}

// NumberDocument runs the pipeline on an in-memory PDF and writes the
// numbered document to w. Pages are processed in order; the first failure
// aborts the run.
func NumberDocument(ctx context.Context, data []byte, w io.Writer, opts ...Option) (Report, error) {
	o, err := newOptions(opts)
	if err != nil {
		return Report{}, err
	}

	extractOpts := []pdf.ExtractionOption{pdf.WithUserSpace(o.UserSpace)}

	dst, err := pdf.Open(data, extractOpts...)
	if err != nil {
		return Report{}, err
	}
	defer dst.Close()

	src := OpenSource(data, dst, extractOpts...)
	if src != pdf.Document(dst) {
		defer src.Close()
	}

	if src.PageCount() != dst.PageCount() {
		return Report{}, fmt.Errorf("page count mismatch: %s reports %d, pdfcpu reports %d",
			src.Backend(), src.PageCount(), dst.PageCount())
	}

	report := Report{Backend: src.Backend()}
	o.Logger.Info("processing document", "pages", dst.PageCount(), "backend", src.Backend())

	organizer := extractors.NewTextOrganizer()
	organizer.SetTolerance(o.Tolerance)

	counter := o.Start
	for pageNr := 1; pageNr <= dst.PageCount(); pageNr++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var page PageReport
		page, counter, err = numberOnePage(src, dst, organizer, pageNr, counter, o)
		if err != nil {
			return report, err
		}

		report.Pages = append(report.Pages, page)
		report.Total += page.Lines
	}

	if err := dst.Write(w); err != nil {
		return report, err
	}

	return report, nil
}

// numberOnePage runs extract, group, render and merge for a single page
func numberOnePage(src pdf.Document, dst *pdf.PDFDocument, organizer *extractors.TextOrganizer, pageNr, counter int, o Options) (PageReport, int, error) {
	geom, err := dst.PageGeometry(pageNr)
	if err != nil {
		return PageReport{}, counter, err
	}

	fragments, err := src.Fragments(pageNr)
	if err != nil {
		return PageReport{}, counter, fmt.Errorf("extract page %d: %w", pageNr, err)
	}

	lines := organizer.GroupLines(fragments)
	labels, next := numberPage(lines, counter, o)

	if err := dst.AddOverlay(pageNr, labels, pdf.LabelStyle{FontSize: o.FontSize}); err != nil {
		return PageReport{}, counter, fmt.Errorf("render page %d: %w", pageNr, err)
	}

	page := PageReport{
		Page:   pageNr,
		Width:  geom.Width(),
		Height: geom.Height(),
		Lines:  len(lines),
		First:  next - len(labels),
		Last:   next - 1,
	}

	o.Logger.Info("page numbered",
		"page", pageNr,
		"lines", page.Lines,
		"first", page.First,
		"last", page.Last,
		"width", page.Width,
		"height", page.Height,
	)

	return page, next, nil
}

// numberPage assigns a number to every line of a page. The counter restarts
// at o.Start unless numbering is continuous; the value to carry into the next
// page is returned.
func numberPage(lines []extractors.Line, counter int, o Options) ([]pdf.Label, int) {
	if !o.Continuous {
		counter = o.Start
	}

	labels := make([]pdf.Label, 0, len(lines))
	for _, line := range lines {
		labels = append(labels, pdf.Label{
			Text: strconv.Itoa(counter),
			X:    o.XPosition,
			Y:    line.Y,
		})
		counter++
	}

	return labels, counter
}
