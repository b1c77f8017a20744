package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pyhub-apps/pdflinenum"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := readCMDFlags(args, stderr)
	if isHelp(err) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}

	level := slog.LevelInfo
	if flags.quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: level}))

	opts := append(flags.options(), pdflinenum.WithLogger(logger))
	if _, err := pdflinenum.Number(ctx, flags.input, flags.output, opts...); err != nil {
		switch pdflinenum.Kind(err) {
		case pdflinenum.KindInputNotFound:
			fmt.Fprintf(stderr, "Error: Input file '%s' not found.\n", flags.input)
		default:
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		return 1
	}

	return 0
}
