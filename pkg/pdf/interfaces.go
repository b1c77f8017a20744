package pdf

import (
	"fmt"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// Document is a PDF opened for text extraction
type Document interface {
	// PageCount returns the total number of pages
	PageCount() int

	// Fragments returns the text fragments drawn on a page (1-based), in
	// content stream order
	Fragments(pageNumber int) ([]content.Fragment, error)

	// Backend names the library used to read the document
	Backend() string

	// Close releases resources associated with the document
	Close() error
}

// Backends lists the extraction backends in the order they are tried
var Backends = []string{"ledongthuc", "dslipak", "pdfcpu"}

// OpenBackend opens data with the named extraction backend
func OpenBackend(name string, data []byte, opts ...ExtractionOption) (Document, error) {
	switch name {
	case "ledongthuc":
		return OpenWithLedongthuc(data, opts...)
	case "dslipak":
		return OpenWithDslipak(data, opts...)
	case "pdfcpu":
		return Open(data, opts...)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
