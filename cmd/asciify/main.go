// Command asciify renders an image as glyph art by factorizing its blocks
// against a library of character bitmaps.
//
//	asciify [flags] INPUT OUTPUT
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/wbrown/nmfascii"
	"github.com/wbrown/nmfascii/glyphgen"
)

type options struct {
	*pflag.FlagSet

	Glyphs      string
	Font        string
	GlyphWidth  int
	GlyphHeight int
	Iterations  int
	Beta        string
	Seed        uint64
	Columns     int
	Text        string
	RGB         bool
	Quiet       bool
	Verbose     bool
	Epsilon     float64
}

func newOptions(stderr io.Writer) *options {
	opt := &options{
		FlagSet: pflag.NewFlagSet("asciify", pflag.ContinueOnError),
	}
	opt.SetOutput(stderr)
	opt.Usage = func() {
		fmt.Fprintf(stderr, "Usage: asciify [flags] INPUT OUTPUT\n\nFlags:\n")
		opt.PrintDefaults()
	}

	opt.StringVarP(&opt.Glyphs, "glyphs", "g", "./glyphs", "Directory of <codepoint>.png glyph bitmaps")
	opt.StringVarP(&opt.Font, "font", "f", "", "Rasterize glyphs from this TTF instead of --glyphs ('gomono' for the embedded font)")
	opt.IntVarP(&opt.GlyphWidth, "glyph-width", "W", nmfascii.DefaultGlyphWidth, "Glyph width in pixels")
	opt.IntVarP(&opt.GlyphHeight, "glyph-height", "H", nmfascii.DefaultGlyphHeight, "Glyph height in pixels")
	opt.IntVarP(&opt.Iterations, "iterations", "n", nmfascii.DefaultIterations, "Number of NMF iterations")
	opt.StringVarP(&opt.Beta, "beta", "b", "2", "Beta divergence: 1 (KLD) or 2 (SED)")
	opt.Uint64VarP(&opt.Seed, "seed", "s", nmfascii.DefaultSeed, "Seed for the initial activations")
	opt.IntVarP(&opt.Columns, "columns", "c", 0, "Resize the input to this many glyph columns (0 keeps its size)")
	opt.StringVarP(&opt.Text, "text", "t", "", "Also write the glyph text to this file ('-' for stdout)")
	opt.BoolVar(&opt.RGB, "rgb", false, "Write a 3-channel output image")
	opt.BoolVarP(&opt.Quiet, "quiet", "q", false, "Suppress log output")
	opt.BoolVarP(&opt.Verbose, "verbose", "v", false, "Log per-glyph details")
	opt.Float64Var(&opt.Epsilon, "epsilon", 0, "Reserved convergence threshold")
	opt.MarkDeprecated("epsilon", "iterations always run to completion")

	return opt
}

// glyphLibrary loads the glyph directory, or rasterizes --font in memory.
func (opt *options) glyphLibrary() (*nmfascii.GlyphLibrary, error) {
	if opt.Font == "" {
		return nmfascii.LoadGlyphLibrary(opt.Glyphs, opt.GlyphWidth, opt.GlyphHeight)
	}

	path := opt.Font
	if path == "gomono" {
		path = ""
	}
	f, err := glyphgen.LoadFont(path)
	if err != nil {
		return nil, err
	}
	gopt := glyphgen.DefaultOptions()
	gopt.Width, gopt.Height = opt.GlyphWidth, opt.GlyphHeight
	bitmaps, err := glyphgen.Render(f, gopt)
	if err != nil {
		return nil, err
	}

	glyphs := make([]nmfascii.Glyph, len(bitmaps))
	for i, b := range bitmaps {
		glyphs[i] = nmfascii.Glyph{CodePoint: b.CodePoint, Bitmap: b.Image}
	}
	return nmfascii.NewGlyphLibrary(glyphs, opt.GlyphWidth, opt.GlyphHeight)
}

func (opt *options) logger(stderr io.Writer) *slog.Logger {
	if opt.Quiet {
		return nil
	}
	level := slog.LevelInfo
	if opt.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func writeText(path, text string, stdout io.Writer) error {
	if path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

func evaluate(opt *options, input, output string, stdout, stderr io.Writer) error {
	beta, err := nmfascii.ParseDivergence(opt.Beta)
	if err != nil {
		return err
	}

	nmfascii.SetLogger(opt.logger(stderr))
	defer nmfascii.SetLogger(nil)

	lib, err := opt.glyphLibrary()
	if err != nil {
		return err
	}

	ropts := []nmfascii.RendererOption{
		nmfascii.WithIterations(opt.Iterations),
		nmfascii.WithBeta(beta),
		nmfascii.WithSeed(opt.Seed),
		nmfascii.WithColumns(opt.Columns),
		nmfascii.WithRGB(opt.RGB),
	}
	if !opt.Quiet {
		ropts = append(ropts, nmfascii.WithProgress(newProgressBar(stderr)))
	}

	res, err := nmfascii.NewRenderer(lib, ropts...).RenderFile(input, output)
	if err != nil {
		return err
	}

	if opt.Text != "" {
		if err := writeText(opt.Text, res.Text(lib), stdout); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
	}
	return nil
}

// run executes the command and returns its exit status: 0 on success,
// 1 on failure and 2 on bad usage.
func run(args []string, stdout, stderr io.Writer) int {
	opt := newOptions(stderr)
	if err := opt.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if opt.NArg() != 2 {
		opt.Usage()
		return 2
	}

	if err := evaluate(opt, opt.Arg(0), opt.Arg(1), stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
