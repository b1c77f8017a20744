package pdflinenum

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdflinenum/internal/pdftest"
	"github.com/pyhub-apps/pdflinenum/pkg/extractors"
	"github.com/pyhub-apps/pdflinenum/pkg/pdf"
)

func lines(ys ...float64) []extractors.Line {
	out := make([]extractors.Line, len(ys))
	for i, y := range ys {
		out[i] = extractors.Line{Y: y, Text: "x"}
	}
	return out
}

func labelTexts(labels []pdf.Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Text
	}
	return out
}

func TestNumberPage(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		pages      [][]extractors.Line
		wantLabels [][]string
		wantNext   int
	}{
		{
			name:       "restart each page",
			pages:      [][]extractors.Line{lines(700, 650, 600), lines(700, 650)},
			wantLabels: [][]string{{"1", "2", "3"}, {"1", "2"}},
			wantNext:   3,
		},
		{
			name:       "continuous from a custom start",
			opts:       []Option{WithContinuous(true), WithStart(50)},
			pages:      [][]extractors.Line{lines(700, 650, 600), lines(700, 650)},
			wantLabels: [][]string{{"50", "51", "52"}, {"53", "54"}},
			wantNext:   55,
		},
		{
			name:       "custom start without continuous",
			opts:       []Option{WithStart(100)},
			pages:      [][]extractors.Line{lines(700), lines(700, 600)},
			wantLabels: [][]string{{"100"}, {"100", "101"}},
			wantNext:   102,
		},
		{
			name:       "empty page keeps the counter",
			opts:       []Option{WithContinuous(true)},
			pages:      [][]extractors.Line{lines(700), nil, lines(500)},
			wantLabels: [][]string{{"1"}, {}, {"2"}},
			wantNext:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := newOptions(tt.opts)
			require.NoError(t, err)

			counter := o.Start
			for i, page := range tt.pages {
				var labels []pdf.Label
				labels, counter = numberPage(page, counter, o)
				assert.Equal(t, tt.wantLabels[i], labelTexts(labels), "page %d", i+1)
			}
			assert.Equal(t, tt.wantNext, counter)
		})
	}
}

func TestNumberPagePlacesLabelsOnLines(t *testing.T) {
	o, err := newOptions([]Option{WithXPosition(12)})
	require.NoError(t, err)

	labels, _ := numberPage(lines(700, 650.5), o.Start, o)
	assert.Equal(t, []pdf.Label{
		{Text: "1", X: 12, Y: 700},
		{Text: "2", X: 12, Y: 650.5},
	}, labels)
}

func TestNumberDocument(t *testing.T) {
	data := pdftest.Build(
		pdftest.TextPage(
			pdftest.Text{X: 72, Y: 700, S: "A"},
			pdftest.Text{X: 200, Y: 699, S: "B"},
			pdftest.Text{X: 72, Y: 650, S: "C"},
		),
		pdftest.Page{},
		pdftest.Lines(500),
	)

	var out bytes.Buffer
	report, err := NumberDocument(context.Background(), data, &out, WithContinuous(true))
	require.NoError(t, err)

	assert.Equal(t, "ledongthuc", report.Backend)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Pages, 3)
	assert.Equal(t, PageReport{Page: 1, Width: 612, Height: 792, Lines: 2, First: 1, Last: 2}, report.Pages[0])
	assert.Equal(t, PageReport{Page: 2, Width: 612, Height: 792, Lines: 0, First: 3, Last: 2}, report.Pages[1])
	assert.Equal(t, PageReport{Page: 3, Width: 612, Height: 792, Lines: 1, First: 3, Last: 3}, report.Pages[2])

	numbered, err := pdf.OpenWithLedongthuc(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, 3, numbered.PageCount())

	first, err := numbered.Fragments(1)
	require.NoError(t, err)
	got := GroupLines(first, extractors.DefaultLineTolerance)
	assert.Equal(t, []Line{
		{Y: 700, Text: "A 1 B"},
		{Y: 650, Text: "C 2"},
	}, got)

	empty, err := numbered.Fragments(2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNumberDocumentPageWithInlineImage(t *testing.T) {
	page := pdftest.Page{Content: "q 4 0 0 1 300 300 cm BI /W 4 /H 1 /BPC 8 /CS /G ID ((<{ EI Q\n" +
		"BT /F1 12 Tf 1 0 0 1 72 700 Tm (hello) Tj ET\n" +
		"BT /F1 12 Tf 1 0 0 1 72 650 Tm (world) Tj ET\n"}

	var out bytes.Buffer
	report, err := NumberDocument(context.Background(), pdftest.Build(page), &out)
	require.NoError(t, err)

	assert.Equal(t, "ledongthuc", report.Backend)
	require.Len(t, report.Pages, 1)
	assert.Equal(t, 2, report.Pages[0].Lines)
	assert.Equal(t, 1, report.Pages[0].First)
	assert.Equal(t, 2, report.Pages[0].Last)

	numbered, err := pdf.Open(out.Bytes())
	require.NoError(t, err)
	fragments, err := numbered.Fragments(1)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Y: 700, Text: "hello 1"},
		{Y: 650, Text: "world 2"},
	}, GroupLines(fragments, extractors.DefaultLineTolerance))
}

func TestNumberDocumentTolerance(t *testing.T) {
	data := pdftest.Build(pdftest.Lines(700, 690, 650))

	var out bytes.Buffer
	report, err := NumberDocument(context.Background(), data, &out, WithTolerance(10))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)

	report, err = NumberDocument(context.Background(), data, &out, WithTolerance(0))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
}

func TestNumberDocumentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := NumberDocument(ctx, pdftest.Build(pdftest.Lines(700)), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}

func TestNumber(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(in, pdftest.Build(pdftest.Lines(700, 680), pdftest.Lines(600)), 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	report, err := Number(context.Background(), in, out, WithStart(10), WithContinuous(true), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.FileExists(t, out)

	assert.Contains(t, logs.String(), "output saved")
	assert.Contains(t, logs.String(), "total=3")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	numbered, err := pdf.OpenWithLedongthuc(data)
	require.NoError(t, err)

	second, err := numbered.Fragments(2)
	require.NoError(t, err)
	assert.Equal(t, []Line{{Y: 600, Text: "line 1 12"}}, GroupLines(second, extractors.DefaultLineTolerance))
}

func TestNumberErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")

	t.Run("missing input", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.pdf")

		_, err := Number(context.Background(), missing, out)
		require.Error(t, err)
		assert.Equal(t, KindInputNotFound, Kind(err))
		assert.Contains(t, err.Error(), missing)
		assert.NoFileExists(t, out)
	})

	t.Run("not a PDF", func(t *testing.T) {
		in := filepath.Join(dir, "broken.pdf")
		require.NoError(t, os.WriteFile(in, []byte("definitely not a PDF"), 0o644))

		_, err := Number(context.Background(), in, out)
		require.Error(t, err)
		assert.Equal(t, KindUnexpected, Kind(err))
		assert.NoFileExists(t, out)
	})

	t.Run("invalid options", func(t *testing.T) {
		in := filepath.Join(dir, "in.pdf")
		require.NoError(t, os.WriteFile(in, pdftest.Build(pdftest.Lines(700)), 0o644))

		_, err := Number(context.Background(), in, out, WithFontSize(0))
		assert.Error(t, err)
		_, err = Number(context.Background(), in, out, WithTolerance(-1))
		assert.Error(t, err)
		assert.NoFileExists(t, out)
	})
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindUnexpected, Kind(errors.New("boom")))
	assert.Equal(t, KindInputNotFound, Kind(ErrInputNotFound{Path: "a.pdf"}))
	assert.Equal(t, "InputNotFound", KindInputNotFound.String())
	assert.Equal(t, "Unexpected", KindUnexpected.String())

	cause := errors.New("disk full")
	err := classify(cause)
	assert.IsType(t, UnexpectedError{}, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "disk full", err.Error())

	assert.Nil(t, classify(nil))
	assert.Equal(t, ErrInputNotFound{Path: "x"}, classify(ErrInputNotFound{Path: "x"}))
}
