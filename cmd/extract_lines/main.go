// Command extract_lines prints the text lines found on each page, with the
// vertical position a line number would be drawn at.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pyhub-apps/pdflinenum"
	"github.com/pyhub-apps/pdflinenum/pkg/extractors"
	"github.com/pyhub-apps/pdflinenum/pkg/pdf"
)

func main() {
	backend := flag.String("backend", "auto", "extraction backend: auto, ledongthuc, dslipak or pdfcpu")
	tolerance := flag.Float64("tolerance", extractors.DefaultLineTolerance, "vertical grouping tolerance in points")
	userSpace := flag.Bool("user-space", false, "map text positions through the CTM")
	fragments := flag.Bool("fragments", false, "also print the raw fragments of each page")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: extract_lines [flags] <pdf_file>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read PDF: %v", err)
	}

	opts := []pdf.ExtractionOption{pdf.WithUserSpace(*userSpace)}

	geometry, err := pdf.Open(data, opts...)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer geometry.Close()

	var doc pdf.Document
	if *backend == "auto" {
		doc = pdflinenum.OpenSource(data, geometry, opts...)
	} else {
		doc, err = pdf.OpenBackend(*backend, data, opts...)
		if err != nil {
			log.Fatalf("Failed to open PDF: %v", err)
		}
		defer doc.Close()
	}

	organizer := extractors.NewTextOrganizer()
	organizer.SetTolerance(*tolerance)

	fmt.Printf("Backend: %s\n", doc.Backend())
	fmt.Printf("Document has %d pages\n\n", doc.PageCount())

	for i := 1; i <= doc.PageCount(); i++ {
		fmt.Printf("=== Page %d ===\n", i)
		if g, err := geometry.PageGeometry(i); err == nil {
			fmt.Printf("Size: %.2f x %.2f\n", g.Width(), g.Height())
		}

		frags, err := doc.Fragments(i)
		if err != nil {
			log.Printf("Failed to extract page %d: %v", i, err)
			continue
		}

		if *fragments {
			for _, f := range frags {
				fmt.Printf("  frag (%7.2f, %7.2f) size=%.2f %q\n", f.X, f.Y, f.FontSize, f.Text)
			}
		}

		lines := organizer.GroupLines(frags)
		if len(lines) == 0 {
			fmt.Println("No text found on this page")
		}
		for n, line := range lines {
			fmt.Printf("%4d  y=%7.2f  %s\n", n+1, line.Y, line.Text)
		}
		fmt.Println()
	}
}
