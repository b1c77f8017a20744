package pdf

import (
	"bytes"
	"fmt"
	"io"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// LedongthucDocument implements the Document interface using ledongthuc/pdf library
type LedongthucDocument struct {
	reader *lpdf.Reader
	config extractionConfig
}

// OpenWithLedongthuc opens an in-memory PDF using the ledongthuc/pdf library
func OpenWithLedongthuc(data []byte, opts ...ExtractionOption) (Document, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}

	return &LedongthucDocument{
		reader: r,
		config: newExtractionConfig(opts),
	}, nil
}

// PageCount returns the total number of pages
func (d *LedongthucDocument) PageCount() int {
	return d.reader.NumPage()
}

// Backend names the library used to read the document
func (d *LedongthucDocument) Backend() string {
	return "ledongthuc"
}

// Fragments walks the page's content streams and returns its text fragments
func (d *LedongthucDocument) Fragments(pageNumber int) (fragments []content.Fragment, err error) {
	if pageNumber < 1 || pageNumber > d.reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	// The library panics on malformed objects
	defer func() {
		if r := recover(); r != nil {
			fragments = nil
			err = fmt.Errorf("process content stream of page %d: %v", pageNumber, r)
		}
	}()

	page := d.reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}

	fonts := make(map[string]content.TextDecoder)
	resolve := func(name string) content.TextDecoder {
		if dec, ok := fonts[name]; ok {
			return dec
		}
		font := page.Font(name)
		dec := content.TextDecoder(font.Encoder())
		fonts[name] = dec
		return dec
	}

	// The library's own interpreter misreads inline image data, so it only
	// decodes the streams and the content lexer does the tokenising
	extractor := content.NewExtractor(d.config.extractorOptions(resolve)...)

	var streams []lpdf.Value
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case lpdf.Array:
		for i := 0; i < contents.Len(); i++ {
			if strm := contents.Index(i); strm.Kind() == lpdf.Stream {
				streams = append(streams, strm)
			}
		}
	case lpdf.Stream:
		streams = append(streams, contents)
	}

	for i, strm := range streams {
		rc := strm.Reader()
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("page %d content stream %d: %w", pageNumber, i, err)
		}
		if err := extractor.ExtractFromBytes(data); err != nil {
			return nil, fmt.Errorf("page %d content stream %d: %w", pageNumber, i, err)
		}
	}

	return extractor.Fragments(), nil
}

// Close releases resources associated with the document
func (d *LedongthucDocument) Close() error {
	d.reader = nil
	return nil
}
