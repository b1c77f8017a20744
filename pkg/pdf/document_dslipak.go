package pdf

import (
	"bytes"
	"fmt"
	"io"

	gopdf "github.com/dslipak/pdf"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// DsliPakDocument implements the Document interface using dslipak/pdf library.
// It is tried when ledongthuc/pdf cannot parse a file.
type DsliPakDocument struct {
	reader *gopdf.Reader
	config extractionConfig
}

// OpenWithDslipak opens an in-memory PDF using the dslipak/pdf library
func OpenWithDslipak(data []byte, opts ...ExtractionOption) (Document, error) {
	r, err := gopdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}

	return &DsliPakDocument{
		reader: r,
		config: newExtractionConfig(opts),
	}, nil
}

// PageCount returns the total number of pages
func (d *DsliPakDocument) PageCount() int {
	return d.reader.NumPage()
}

// Backend names the library used to read the document
func (d *DsliPakDocument) Backend() string {
	return "dslipak"
}

// Fragments walks the page's content streams and returns its text fragments
func (d *DsliPakDocument) Fragments(pageNumber int) (fragments []content.Fragment, err error) {
	if pageNumber < 1 || pageNumber > d.reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

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

	var streams []gopdf.Value
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case gopdf.Array:
		for i := 0; i < contents.Len(); i++ {
			if strm := contents.Index(i); strm.Kind() == gopdf.Stream {
				streams = append(streams, strm)
			}
		}
	case gopdf.Stream:
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
func (d *DsliPakDocument) Close() error {
	d.reader = nil
	return nil
}
