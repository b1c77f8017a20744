package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// overlayFontPrefix is the resource name prefix of the label font
const overlayFontPrefix = "LnNum"

// PDFCPUPage is a single page of a pdfcpu context
type PDFCPUPage struct {
	ctx        *model.Context
	pageNumber int
	pageDict   types.Dict
	attrs      *model.InheritedPageAttrs
}

// NewPDFCPUPage creates a new page using pdfcpu context
func NewPDFCPUPage(ctx *model.Context, pageNumber int) (*PDFCPUPage, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	if pageNumber < 1 || pageNumber > ctx.PageCount {
		return nil, fmt.Errorf("page number %d out of range [1, %d]", pageNumber, ctx.PageCount)
	}

	// Get page dictionary and inherited attributes
	pageDict, _, attrs, err := ctx.PageDict(pageNumber, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dict: %w", err)
	}
	if pageDict == nil {
		return nil, fmt.Errorf("page %d not found", pageNumber)
	}

	return &PDFCPUPage{
		ctx:        ctx,
		pageNumber: pageNumber,
		pageDict:   pageDict,
		attrs:      attrs,
	}, nil
}

// geometry returns the page's own MediaBox, the inherited one, or US Letter
func (p *PDFCPUPage) geometry() PageGeometry {
	box := BoundingBox{X1: DefaultPageWidth, Y1: DefaultPageHeight}

	if obj, found := p.pageDict["MediaBox"]; found && obj != nil {
		if arr, err := p.ctx.DereferenceArray(obj); err == nil {
			if b, ok := boxFromArray(arr); ok {
				return PageGeometry{Number: p.pageNumber, MediaBox: b}
			}
		}
	}

	if p.attrs != nil && p.attrs.MediaBox != nil {
		mb := p.attrs.MediaBox
		box = BoundingBox{X0: mb.LL.X, Y0: mb.LL.Y, X1: mb.UR.X, Y1: mb.UR.Y}
	}

	return PageGeometry{Number: p.pageNumber, MediaBox: box}
}

func boxFromArray(arr types.Array) (BoundingBox, bool) {
	if len(arr) != 4 {
		return BoundingBox{}, false
	}
	var v [4]float64
	for i, o := range arr {
		switch n := o.(type) {
		case types.Integer:
			v[i] = float64(n)
		case types.Float:
			v[i] = float64(n)
		default:
			return BoundingBox{}, false
		}
	}
	return BoundingBox{
		X0: min(v[0], v[2]),
		Y0: min(v[1], v[3]),
		X1: max(v[0], v[2]),
		Y1: max(v[1], v[3]),
	}, true
}

// contentStreams returns the decoded content streams of the page in order
func (p *PDFCPUPage) contentStreams() ([][]byte, error) {
	obj, found := p.pageDict["Contents"]
	if !found || obj == nil {
		return nil, nil
	}

	resolved, err := p.ctx.Dereference(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference content: %w", err)
	}

	var contentStreams [][]byte

	switch v := resolved.(type) {
	case types.StreamDict:
		decoded, err := decodeStream(&v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stream: %w", err)
		}
		contentStreams = append(contentStreams, decoded)

	case types.Array:
		for i, item := range v {
			streamDict, _, err := p.ctx.DereferenceStreamDict(item)
			if err != nil {
				return nil, fmt.Errorf("failed to dereference content stream %d: %w", i, err)
			}
			if streamDict == nil {
				continue
			}
			decoded, err := decodeStream(streamDict)
			if err != nil {
				return nil, fmt.Errorf("failed to decode content stream %d: %w", i, err)
			}
			contentStreams = append(contentStreams, decoded)
		}
	}

	return contentStreams, nil
}

// decodeStream decodes a stream dictionary
func decodeStream(stream *types.StreamDict) ([]byte, error) {
	if len(stream.Content) > 0 {
		return stream.Content, nil
	}

	if err := stream.Decode(); err != nil {
		return nil, err
	}

	return stream.Content, nil
}

// resources returns the page's resource dictionary, falling back to the
// inherited one. The result must not be modified.
func (p *PDFCPUPage) resources() (types.Dict, error) {
	if obj, found := p.pageDict["Resources"]; found && obj != nil {
		d, err := p.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference resources: %w", err)
		}
		return d, nil
	}
	if p.attrs != nil {
		return p.attrs.Resources, nil
	}
	return nil, nil
}

// fontResolver returns decoders backed by each font's ToUnicode CMap
func (p *PDFCPUPage) fontResolver() content.FontResolver {
	cache := make(map[string]content.TextDecoder)

	return func(name string) content.TextDecoder {
		if dec, ok := cache[name]; ok {
			return dec
		}
		var dec content.TextDecoder
		if cmap := p.toUnicode(name); cmap != nil {
			dec = cmap
		}
		cache[name] = dec
		return dec
	}
}

func (p *PDFCPUPage) toUnicode(fontName string) *ToUnicodeCMap {
	res, err := p.resources()
	if err != nil || res == nil {
		return nil
	}
	fonts, err := p.ctx.DereferenceDict(res["Font"])
	if err != nil || fonts == nil {
		return nil
	}
	font, err := p.ctx.DereferenceDict(fonts[fontName])
	if err != nil || font == nil {
		return nil
	}
	toUnicode, found := font["ToUnicode"]
	if !found || toUnicode == nil {
		return nil
	}
	streamDict, _, err := p.ctx.DereferenceStreamDict(toUnicode)
	if err != nil || streamDict == nil {
		return nil
	}
	data, err := decodeStream(streamDict)
	if err != nil {
		return nil
	}

	cmap := NewToUnicodeCMap()
	if err := cmap.Parse(data); err != nil {
		return nil
	}
	return cmap
}

// AddOverlay composites labels on top of a page. The existing content is
// wrapped in q/Q so its graphics state cannot leak into the labels; the page
// gets its own copy of its resources with the label font added.
func (d *PDFDocument) AddOverlay(pageNumber int, labels []Label, style LabelStyle) error {
	if len(labels) == 0 {
		return nil
	}

	page, err := d.page(pageNumber)
	if err != nil {
		return err
	}

	fontRef, err := d.overlayFontRef()
	if err != nil {
		return err
	}

	fontName, err := page.addFontResource(*fontRef)
	if err != nil {
		return fmt.Errorf("page %d: %w", pageNumber, err)
	}

	if err := page.appendContent(OverlayContent(fontName, style.FontSize, labels)); err != nil {
		return fmt.Errorf("page %d: %w", pageNumber, err)
	}

	return nil
}

// overlayFontRef returns the shared Helvetica font object, creating it on
// first use
func (d *PDFDocument) overlayFontRef() (*types.IndirectRef, error) {
	if d.overlayFont != nil {
		return d.overlayFont, nil
	}

	font := types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica"),
		"Encoding": types.Name("WinAnsiEncoding"),
	}

	ir, err := d.ctx.IndRefForNewObject(font)
	if err != nil {
		return nil, fmt.Errorf("failed to add overlay font: %w", err)
	}

	d.overlayFont = ir
	return ir, nil
}

// addFontResource registers fontRef in a private copy of the page resources
// and returns the resource name it was given
func (p *PDFCPUPage) addFontResource(fontRef types.IndirectRef) (string, error) {
	shared, err := p.resources()
	if err != nil {
		return "", err
	}
	res := copyDict(shared)

	var fonts types.Dict
	if obj, found := res["Font"]; found && obj != nil {
		d, err := p.ctx.DereferenceDict(obj)
		if err != nil {
			return "", fmt.Errorf("failed to dereference fonts: %w", err)
		}
		fonts = copyDict(d)
	} else {
		fonts = types.Dict{}
	}

	name := uniqueResourceName(fonts, overlayFontPrefix)
	fonts[name] = fontRef
	res["Font"] = fonts
	p.pageDict["Resources"] = res

	return name, nil
}

// appendContent adds a content stream after the existing ones
func (p *PDFCPUPage) appendContent(overlay []byte) error {
	var existing types.Array

	if obj, found := p.pageDict["Contents"]; found && obj != nil {
		resolved, err := p.ctx.Dereference(obj)
		if err != nil {
			return fmt.Errorf("failed to dereference content: %w", err)
		}
		switch v := resolved.(type) {
		case types.Array:
			existing = append(existing, v...)
		case types.StreamDict:
			existing = append(existing, obj)
		}
	}

	if len(existing) == 0 {
		ref, err := p.newContentStream(overlay)
		if err != nil {
			return err
		}
		p.pageDict["Contents"] = *ref
		return nil
	}

	save, err := p.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	ref, err := p.newContentStream(append([]byte("Q\n"), overlay...))
	if err != nil {
		return err
	}

	contents := make(types.Array, 0, len(existing)+2)
	contents = append(contents, *save)
	contents = append(contents, existing...)
	contents = append(contents, *ref)
	p.pageDict["Contents"] = contents

	return nil
}

func (p *PDFCPUPage) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := p.ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	ir, err := p.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("failed to add content stream: %w", err)
	}
	return ir, nil
}

// OverlayContent builds the content stream that draws labels with the font
// registered under fontName
func OverlayContent(fontName string, fontSize float64, labels []Label) []byte {
	var buf bytes.Buffer

	buf.WriteString("q\n0 g\nBT\n")
	fmt.Fprintf(&buf, "/%s %s Tf\n", fontName, formatNumber(fontSize))
	for _, l := range labels {
		fmt.Fprintf(&buf, "1 0 0 1 %s %s Tm\n", formatNumber(l.X), formatNumber(l.Y))
		fmt.Fprintf(&buf, "(%s) Tj\n", escapeString(l.Text))
	}
	buf.WriteString("ET\nQ\n")

	return buf.Bytes()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapeString(s string) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

func uniqueResourceName(d types.Dict, prefix string) string {
	for i := 1; ; i++ {
		name := prefix + strconv.Itoa(i)
		if _, taken := d[name]; !taken {
			return name
		}
	}
}

func copyDict(d types.Dict) types.Dict {
	c := make(types.Dict, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}
