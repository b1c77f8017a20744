package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdflinenum/pkg/content"
)

func frag(y float64, text string) content.Fragment {
	return content.Fragment{X: 72, Y: y, Text: text, FontSize: 12}
}

func TestGroupLines(t *testing.T) {
	tests := []struct {
		name      string
		fragments []content.Fragment
		tolerance float64
		want      []Line
	}{
		{
			name:      "empty input",
			fragments: nil,
			tolerance: DefaultLineTolerance,
			want:      nil,
		},
		{
			name:      "only blank fragments",
			fragments: []content.Fragment{frag(700, " "), frag(650, "\t")},
			tolerance: DefaultLineTolerance,
			want:      nil,
		},
		{
			name:      "near fragments merge, far ones split",
			fragments: []content.Fragment{frag(700, "A"), frag(699, "B"), frag(650, "C")},
			tolerance: DefaultLineTolerance,
			want: []Line{
				{Y: 700, Text: "A B"},
				{Y: 650, Text: "C"},
			},
		},
		{
			name:      "tolerance boundary is inclusive",
			fragments: []content.Fragment{frag(700, "A"), frag(698, "B")},
			tolerance: 2,
			want:      []Line{{Y: 700, Text: "A B"}},
		},
		{
			name:      "just past tolerance splits",
			fragments: []content.Fragment{frag(700, "A"), frag(697.999, "B")},
			tolerance: 2,
			want: []Line{
				{Y: 700, Text: "A"},
				{Y: 697.999, Text: "B"},
			},
		},
		{
			name:      "anchor does not drift",
			fragments: []content.Fragment{frag(700, "a"), frag(698, "b"), frag(696, "c")},
			tolerance: 2,
			want: []Line{
				{Y: 700, Text: "a b"},
				{Y: 696, Text: "c"},
			},
		},
		{
			name:      "unsorted input comes out top to bottom",
			fragments: []content.Fragment{frag(100, "low"), frag(500, "high"), frag(300, "mid")},
			tolerance: DefaultLineTolerance,
			want: []Line{
				{Y: 500, Text: "high"},
				{Y: 300, Text: "mid"},
				{Y: 100, Text: "low"},
			},
		},
		{
			name:      "equal Y keeps input order",
			fragments: []content.Fragment{frag(400, "first"), frag(400, "second"), frag(400, "third")},
			tolerance: 0,
			want:      []Line{{Y: 400, Text: "first second third"}},
		},
		{
			name:      "blank fragments are dropped between words",
			fragments: []content.Fragment{frag(400, "x"), frag(400, "  "), frag(400, "y")},
			tolerance: DefaultLineTolerance,
			want:      []Line{{Y: 400, Text: "x y"}},
		},
		{
			name:      "text is NFC normalized",
			fragments: []content.Fragment{frag(400, "e\u0301te\u0301")},
			tolerance: DefaultLineTolerance,
			want:      []Line{{Y: 400, Text: "\u00e9t\u00e9"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupLines(tt.fragments, tt.tolerance))
		})
	}
}

func TestGroupLinesOrdering(t *testing.T) {
	fragments := []content.Fragment{
		frag(120, "a"), frag(719.5, "b"), frag(121, "c"), frag(400, "d"),
		frag(720, "e"), frag(399, "f"), frag(50, "g"), frag(118.5, "h"),
	}

	lines := GroupLines(fragments, DefaultLineTolerance)
	require.NotEmpty(t, lines)

	for i := 1; i < len(lines); i++ {
		assert.Greater(t, lines[i-1].Y, lines[i].Y, "lines must be strictly descending")
	}
}

func TestGroupLinesIdempotent(t *testing.T) {
	fragments := []content.Fragment{
		frag(300, "z"), frag(700, "a"), frag(699, "b"), frag(650, "c"), frag(301.5, "y"),
	}

	lines := GroupLines(fragments, DefaultLineTolerance)
	require.Len(t, lines, 3)

	for _, line := range lines {
		regrouped := GroupLines([]content.Fragment{frag(line.Y, line.Text)}, DefaultLineTolerance)
		assert.Equal(t, []Line{line}, regrouped)
	}
	assert.Equal(t, lines, GroupLines(fragments, DefaultLineTolerance))
}

func TestGroupLinesDoesNotModifyInput(t *testing.T) {
	fragments := []content.Fragment{frag(100, "a"), frag(500, "b"), frag(300, " ")}
	before := append([]content.Fragment(nil), fragments...)

	GroupLines(fragments, DefaultLineTolerance)
	assert.Equal(t, before, fragments)
}

func TestTextOrganizer(t *testing.T) {
	to := NewTextOrganizer()
	assert.Equal(t, DefaultLineTolerance, to.Tolerance())

	fragments := []content.Fragment{frag(700, "a"), frag(695, "b")}
	assert.Len(t, to.GroupLines(fragments), 2)

	to.SetTolerance(5)
	assert.Equal(t, []Line{{Y: 700, Text: "a b"}}, to.GroupLines(fragments))
}
