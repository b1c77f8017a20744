// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strconv"
)

// Text is one string drawn at a baseline position with Helvetica
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page describes a page by its raw content stream
type Page struct {
	Width, Height float64
	Content       string
}

// TextPage returns a US Letter page drawing each text in its own BT/ET block
func TextPage(texts ...Text) Page {
	var buf bytes.Buffer
	for _, t := range texts {
		size := t.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&buf, "BT /F1 %s Tf 1 0 0 1 %s %s Tm (%s) Tj ET\n",
			num(size), num(t.X), num(t.Y), t.S)
	}
	return Page{Width: 612, Height: 792, Content: buf.String()}
}

// Lines returns a page with one text line per y position, top to bottom
func Lines(ys ...float64) Page {
	texts := make([]Text, len(ys))
	for i, y := range ys {
		texts[i] = Text{X: 72, Y: y, S: "line " + strconv.Itoa(i+1)}
	}
	return TextPage(texts...)
}

// Build assembles an uncompressed PDF with a shared Helvetica font resource
// named F1.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	// Object numbers: 1 catalog, 2 page tree, 3 font, then page/content pairs
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	obj("<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := range pages {
		fmt.Fprintf(&kids, "%d 0 R ", 4+2*i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [ %s] /Count %d >>", kids.String(), len(pages)))

	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		w, h := p.Width, p.Height
		if w == 0 || h == 0 {
			w, h = 612, 792
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", num(w), num(h), 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.Content), p.Content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
