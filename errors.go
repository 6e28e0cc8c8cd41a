package nmfascii

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGlyphSet is returned when a glyph directory is missing,
	// unreadable, empty, or holds two bitmaps for the same code point.
	ErrInvalidGlyphSet = errors.New("invalid glyph set")

	// ErrGlyphSizeMismatch is returned when a glyph bitmap does not match
	// the requested block size. See GlyphSizeError.
	ErrGlyphSizeMismatch = errors.New("glyph size mismatch")

	// ErrInvalidIterationCount is returned for a negative iteration count.
	ErrInvalidIterationCount = errors.New("invalid iteration count")

	// ErrUnsupportedBetaDivergence is returned for a beta other than SED
	// or KLD.
	ErrUnsupportedBetaDivergence = errors.New("unsupported beta divergence")

	// ErrDimensionMismatch is returned when V, W and H do not line up.
	ErrDimensionMismatch = errors.New("matrix dimension mismatch")

	// ErrImageDecode is returned when the source image cannot be read.
	ErrImageDecode = errors.New("image decode failure")

	// ErrImageWrite is returned when the output image cannot be written.
	ErrImageWrite = errors.New("image write failure")
)

// GlyphSizeError reports a glyph bitmap whose dimensions differ from the
// block size of the library being built.
type GlyphSizeError struct {
	Path      string // file the bitmap came from, empty for in-memory glyphs
	CodePoint rune
	WantW     int
	WantH     int
	GotW      int
	GotH      int
}

func (e *GlyphSizeError) Error() string {
	src := e.Path
	if src == "" {
		src = fmt.Sprintf("glyph %d", e.CodePoint)
	}
	return fmt.Sprintf("%v: %s is %dx%d, expected %dx%d",
		ErrGlyphSizeMismatch, src, e.GotW, e.GotH, e.WantW, e.WantH)
}

// Unwrap lets errors.Is match ErrGlyphSizeMismatch.
func (e *GlyphSizeError) Unwrap() error {
	return ErrGlyphSizeMismatch
}
