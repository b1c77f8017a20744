package extractors

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

// DefaultLineTolerance is the vertical distance, in points, within which two
// fragments are considered to be on the same line.
const DefaultLineTolerance = 2.0

// Line is a cluster of fragments judged to lie on the same visual row.
// Y is the position of the first fragment of the cluster.
type Line struct {
	Y    float64
	Text string
}

// TextOrganizer organizes text fragments into lines
type TextOrganizer struct {
	yTolerance float64 // Vertical tolerance for grouping fragments into lines
}

// NewTextOrganizer creates a new text organizer with the default tolerance
func NewTextOrganizer() *TextOrganizer {
	return &TextOrganizer{
		yTolerance: DefaultLineTolerance,
	}
}

// SetTolerance sets the vertical tolerance for line grouping
func (to *TextOrganizer) SetTolerance(yTol float64) {
	to.yTolerance = yTol
}

// Tolerance returns the vertical tolerance for line grouping
func (to *TextOrganizer) Tolerance() float64 {
	return to.yTolerance
}

// GroupLines groups fragments into lines ordered top to bottom
func (to *TextOrganizer) GroupLines(fragments []content.Fragment) []Line {
	return GroupLines(fragments, to.yTolerance)
}

// GroupLines clusters fragments into lines by vertical position.
//
// Blank fragments are dropped and the rest are sorted by Y descending. A
// cluster is anchored at the Y of its first fragment and the anchor never
// moves: a fragment joins while |Y - anchor| <= tolerance. The input slice is
// not modified.
func GroupLines(fragments []content.Fragment, tolerance float64) []Line {
	sorted := make([]content.Fragment, 0, len(fragments))
	for _, frag := range fragments {
		if strings.TrimSpace(frag.Text) == "" {
			continue
		}
		sorted = append(sorted, frag)
	}
	if len(sorted) == 0 {
		return nil
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []Line
	anchor := sorted[0].Y
	current := []string{sorted[0].Text}

	for _, frag := range sorted[1:] {
		if math.Abs(frag.Y-anchor) > tolerance {
			lines = append(lines, newLine(anchor, current))
			anchor = frag.Y
			current = []string{frag.Text}
			continue
		}
		current = append(current, frag.Text)
	}

	return append(lines, newLine(anchor, current))
}

func newLine(y float64, texts []string) Line {
	return Line{
		Y:    y,
		Text: norm.NFC.String(strings.Join(texts, " ")),
	}
}
