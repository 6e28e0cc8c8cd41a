// Package glyphgen rasterizes TrueType fonts into per-character grayscale
// bitmaps: one dark-on-light cell per code point, centered in a fixed-size
// box. The bitmaps are written as "<codepoint>.png" files, the layout
// nmfascii.LoadGlyphLibrary reads.
package glyphgen

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/wbrown/nmfascii/imageutil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// Options controls how glyphs are rasterized.
type Options struct {
	Width, Height int     // cell size in pixels
	Size          float64 // font size in points, 0 means min(Width, Height)
	DPI           float64 // 0 means 72, so points equal pixels
	First, Last   rune    // inclusive code point range
	Background    uint8
	Foreground    uint8
}

// DefaultOptions returns 7x9 black-on-white cells covering printable ASCII.
func DefaultOptions() Options {
	return Options{
		Width:      7,
		Height:     9,
		First:      ' ',
		Last:       '~',
		Background: imageutil.White,
		Foreground: imageutil.Black,
	}
}

func (o Options) size() float64 {
	if o.Size > 0 {
		return o.Size
	}
	return float64(min(o.Width, o.Height))
}

func (o Options) dpi() float64 {
	if o.DPI > 0 {
		return o.DPI
	}
	return 72
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid cell size %dx%d", o.Width, o.Height)
	}
	if o.Last < o.First {
		return fmt.Errorf("invalid code point range %d..%d", o.First, o.Last)
	}
	return nil
}

// Bitmap is one rasterized character.
type Bitmap struct {
	CodePoint rune
	Image     *image.Gray
}

// LoadFont loads a TrueType font from file. An empty path returns the
// embedded Go Mono font.
func LoadFont(path string) (*truetype.Font, error) {
	fontBytes := gomono.TTF
	if path != "" {
		var err error
		fontBytes, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
	}

	f, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", path, err)
	}
	return f, nil
}

// renderer draws single characters into fixed-size cells with one face.
type renderer struct {
	opts     Options
	face     font.Face
	baseline fixed.Int26_6
}

func newRenderer(f *truetype.Font, opts Options) *renderer {
	face := truetype.NewFace(f, &truetype.Options{
		Size:    opts.size(),
		DPI:     opts.dpi(),
		Hinting: font.HintingFull,
	})

	// Center the line box (ascent + descent) vertically in the cell
	metrics := face.Metrics()
	lineHeight := metrics.Ascent + metrics.Descent
	baseline := (fixed.I(opts.Height)-lineHeight)/2 + metrics.Ascent

	return &renderer{opts: opts, face: face, baseline: baseline}
}

// render draws r horizontally centered on its advance width.
func (rd *renderer) render(r rune) *image.Gray {
	img := imageutil.NewFilledGray(rd.opts.Width, rd.opts.Height, rd.opts.Background)
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: rd.opts.Foreground}),
		Face: rd.face,
	}
	s := string(r)
	advance := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(rd.opts.Width) - advance) / 2,
		Y: rd.baseline,
	}
	d.DrawString(s)
	return img
}

// Render rasterizes every code point in [opts.First, opts.Last] that the
// font has a glyph for. Code points missing from the font are skipped.
func Render(f *truetype.Font, opts Options) ([]Bitmap, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	rd := newRenderer(f, opts)
	defer rd.face.Close()

	var out []Bitmap
	for r := opts.First; r <= opts.Last; r++ {
		if f.Index(r) == 0 {
			continue
		}
		out = append(out, Bitmap{CodePoint: r, Image: rd.render(r)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("font has no glyphs in range %d..%d", opts.First, opts.Last)
	}
	return out, nil
}

// FileName returns the glyph file name for code point r, e.g. "65.png".
func FileName(r rune) string {
	return strconv.Itoa(int(r)) + ".png"
}

// WriteDir renders the font and writes one PNG per glyph into dir,
// creating it if needed. It returns the bitmaps written.
func WriteDir(f *truetype.Font, dir string, opts Options) ([]Bitmap, error) {
	bitmaps, err := Render(f, opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, b := range bitmaps {
		if err := imageutil.SavePNG(b.Image, filepath.Join(dir, FileName(b.CodePoint))); err != nil {
			return nil, err
		}
	}
	return bitmaps, nil
}
