// Command fontconvert rasterizes a TrueType font into a directory of
// <codepoint>.png glyph bitmaps for asciify.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/wbrown/nmfascii"
	"github.com/wbrown/nmfascii/glyphgen"
)

type options struct {
	*pflag.FlagSet
	glyphgen.Options

	Font   string
	Output string
}

func newOptions(stderr io.Writer) *options {
	opt := &options{
		FlagSet: pflag.NewFlagSet("fontconvert", pflag.ContinueOnError),
		Options: glyphgen.DefaultOptions(),
	}
	opt.SetOutput(stderr)

	opt.StringVarP(&opt.Font, "font", "f", "", "Path to a TTF file (default: embedded Go Mono)")
	opt.StringVarP(&opt.Output, "output", "o", "./glyphs", "Directory to write glyph bitmaps to")
	opt.IntVarP(&opt.Width, "width", "W", nmfascii.DefaultGlyphWidth, "Glyph width in pixels")
	opt.IntVarP(&opt.Height, "height", "H", nmfascii.DefaultGlyphHeight, "Glyph height in pixels")
	opt.Float64Var(&opt.Size, "size", 0, "Font size in points (default: min(width, height))")
	opt.Int32Var(&opt.First, "first", opt.First, "First code point")
	opt.Int32Var(&opt.Last, "last", opt.Last, "Last code point")

	return opt
}

func run(args []string, stdout, stderr io.Writer) int {
	opt := newOptions(stderr)
	if err := opt.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if opt.NArg() != 0 {
		opt.Usage()
		return 2
	}

	f, err := glyphgen.LoadFont(opt.Font)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	bitmaps, err := glyphgen.WriteDir(f, opt.Output, opt.Options)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %d glyphs (%dx%d) to %s\n",
		len(bitmaps), opt.Width, opt.Height, opt.Output)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
