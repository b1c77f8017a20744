package pdf

import (
	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// Default page size (US Letter) used when a page has no MediaBox
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
)

// BoundingBox represents a rectangular area with coordinates
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Bottom
	X1 float64 // Right
	Y1 float64 // Top
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// PageGeometry describes the size of a page in points
type PageGeometry struct {
	Number   int // 1-based
	MediaBox BoundingBox
}

// Width returns the page width
func (g PageGeometry) Width() float64 {
	return g.MediaBox.Width()
}

// Height returns the page height
func (g PageGeometry) Height() float64 {
	return g.MediaBox.Height()
}

// Label is a piece of text to draw on the overlay, positioned by its baseline
// origin in default user space.
type Label struct {
	Text string
	X    float64
	Y    float64
}

// LabelStyle controls how overlay labels are drawn
type LabelStyle struct {
	FontSize float64
}

// ExtractionOption is a function that modifies text extraction behavior
type ExtractionOption func(*extractionConfig)

type extractionConfig struct {
	UserSpace bool
}

// WithUserSpace maps fragment positions through the CTM
func WithUserSpace(enabled bool) ExtractionOption {
	return func(c *extractionConfig) {
		c.UserSpace = enabled
	}
}

func newExtractionConfig(opts []ExtractionOption) extractionConfig {
	var config extractionConfig
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func (c extractionConfig) extractorOptions(resolve content.FontResolver) []content.ExtractorOption {
	return []content.ExtractorOption{
		content.WithUserSpace(c.UserSpace),
		content.WithFontResolver(resolve),
	}
}
