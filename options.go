package pdflinenum

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pyhub-apps/pdflinenum/pkg/extractors"
)

// Defaults for numbering
const (
	DefaultFontSize  = 8
	DefaultXPosition = 30
	DefaultStart     = 1
)

// Options controls how line numbers are placed and counted
type Options struct {
	FontSize   float64 // Label font size in points
	XPosition  float64 // Label x offset from the left edge, in points
	Continuous bool    // Keep counting across pages instead of restarting
	Start      int     // First line number
	Tolerance  float64 // Vertical line grouping tolerance, in points
	UserSpace  bool    // Map text positions through the CTM
	Logger     *slog.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		FontSize:  DefaultFontSize,
		XPosition: DefaultXPosition,
		Start:     DefaultStart,
		Tolerance: extractors.DefaultLineTolerance,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithFontSize sets the label font size
func WithFontSize(size float64) Option {
	return func(o *Options) {
		o.FontSize = size
	}
}

// WithXPosition sets the horizontal label position
func WithXPosition(x float64) Option {
	return func(o *Options) {
		o.XPosition = x
	}
}

// WithContinuous enables numbering across pages
func WithContinuous(enabled bool) Option {
	return func(o *Options) {
		o.Continuous = enabled
	}
}

// WithStart sets the first line number
func WithStart(start int) Option {
	return func(o *Options) {
		o.Start = start
	}
}

// WithTolerance sets the vertical tolerance for line grouping
func WithTolerance(tolerance float64) Option {
	return func(o *Options) {
		o.Tolerance = tolerance
	}
}

// WithUserSpace places labels using CTM-mapped text positions
func WithUserSpace(enabled bool) Option {
	return func(o *Options) {
		o.UserSpace = enabled
	}
}

// WithLogger sets the logger used for progress messages
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func newOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.FontSize <= 0 {
		return o, fmt.Errorf("font size must be positive, got %v", o.FontSize)
	}
	if o.Tolerance < 0 {
		return o, fmt.Errorf("tolerance must not be negative, got %v", o.Tolerance)
	}

	return o, nil
}
