package nmfascii

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wbrown/nmfascii/imageutil"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultGlyphWidth and DefaultGlyphHeight define the standard
	// character cell size.
	DefaultGlyphWidth  = 7
	DefaultGlyphHeight = 9
)

// Glyph is one character cell: a code point and its grayscale bitmap.
type Glyph struct {
	CodePoint rune
	Bitmap    *image.Gray

	// Weights is the bitmap flattened row-major and divided by the square
	// root of its pixel sum. A fully black glyph has all-zero weights.
	Weights []float64
}

// GlyphLibrary is an immutable set of equally sized glyphs ordered by
// ascending code point. The order defines the glyph index used by the
// weight matrix, the activation matrix and the Assignment.
type GlyphLibrary struct {
	width, height int
	glyphs        []Glyph
	weights       *mat.Dense
}

// glyphWeights flattens a bitmap and normalizes it by the square root of
// its pixel sum.
func glyphWeights(bitmap *image.Gray) []float64 {
	flat := imageutil.ToFloat(bitmap)
	var sum float64
	for _, v := range flat {
		sum += v
	}
	norm := math.Sqrt(sum)
	for i, v := range flat {
		w := v / norm
		if math.IsNaN(w) || math.IsInf(w, 0) {
			w = 0
		}
		flat[i] = w
	}
	return flat
}

// NewGlyphLibrary builds a library from in-memory bitmaps. Only CodePoint
// and Bitmap of each glyph are used; weights are recomputed. Bitmaps are
// copied, so the caller may reuse them.
func NewGlyphLibrary(glyphs []Glyph, width, height int) (*GlyphLibrary, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: block size %dx%d", ErrInvalidGlyphSet, width, height)
	}
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("%w: no glyphs", ErrInvalidGlyphSet)
	}

	lib := &GlyphLibrary{
		width:  width,
		height: height,
		glyphs: make([]Glyph, 0, len(glyphs)),
	}
	for _, g := range glyphs {
		if g.Bitmap == nil {
			return nil, fmt.Errorf("%w: glyph %d has no bitmap", ErrInvalidGlyphSet, g.CodePoint)
		}
		b := g.Bitmap.Bounds()
		if b.Dx() != width || b.Dy() != height {
			return nil, &GlyphSizeError{
				CodePoint: g.CodePoint,
				WantW:     width, WantH: height,
				GotW: b.Dx(), GotH: b.Dy(),
			}
		}
		bitmap := imageutil.CloneGray(g.Bitmap)
		lib.glyphs = append(lib.glyphs, Glyph{
			CodePoint: g.CodePoint,
			Bitmap:    bitmap,
			Weights:   glyphWeights(bitmap),
		})
	}

	sort.SliceStable(lib.glyphs, func(i, j int) bool {
		return lib.glyphs[i].CodePoint < lib.glyphs[j].CodePoint
	})
	for i := 1; i < len(lib.glyphs); i++ {
		if lib.glyphs[i].CodePoint == lib.glyphs[i-1].CodePoint {
			return nil, fmt.Errorf("%w: duplicate code point %d",
				ErrInvalidGlyphSet, lib.glyphs[i].CodePoint)
		}
	}

	lib.weights = mat.NewDense(width*height, len(lib.glyphs), nil)
	for g, glyph := range lib.glyphs {
		lib.weights.SetCol(g, glyph.Weights)
	}

	return lib, nil
}

// parseGlyphName returns the code point encoded in a glyph file name such
// as "65.png". ok is false for files that are not glyph bitmaps.
func parseGlyphName(name string) (r rune, ok bool) {
	if !imageutil.IsImageFile(name) {
		return 0, false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	n, err := strconv.ParseUint(stem, 10, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// LoadGlyphLibrary loads every glyph bitmap in dir. A file is a glyph when
// its name is a decimal code point followed by an image extension, e.g.
// "65.png" for 'A'; anything else is ignored. Each bitmap must be exactly
// width x height pixels.
func LoadGlyphLibrary(dir string, width, height int) (*GlyphLibrary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGlyphSet, err)
	}

	var glyphs []Glyph
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		r, ok := parseGlyphName(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		bitmap, err := imageutil.LoadGray(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGlyphSet, err)
		}
		if b := bitmap.Bounds(); b.Dx() != width || b.Dy() != height {
			return nil, &GlyphSizeError{
				Path:      path,
				CodePoint: r,
				WantW:     width, WantH: height,
				GotW: b.Dx(), GotH: b.Dy(),
			}
		}
		Logger().Debug("loaded glyph", "path", path, "codepoint", r)
		glyphs = append(glyphs, Glyph{CodePoint: r, Bitmap: bitmap})
	}

	if len(glyphs) == 0 {
		return nil, fmt.Errorf("%w: no glyph bitmaps in %s", ErrInvalidGlyphSet, dir)
	}

	lib, err := NewGlyphLibrary(glyphs, width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	Logger().Info("found glyphs", "count", lib.Len(), "dir", dir)
	return lib, nil
}

// Len returns the number of glyphs.
func (lib *GlyphLibrary) Len() int {
	return len(lib.glyphs)
}

// Size returns the glyph width and height in pixels.
func (lib *GlyphLibrary) Size() (width, height int) {
	return lib.width, lib.height
}

// Glyph returns the glyph at index i.
func (lib *GlyphLibrary) Glyph(i int) Glyph {
	return lib.glyphs[i]
}

// CodePoints returns the code points in library order.
func (lib *GlyphLibrary) CodePoints() []rune {
	out := make([]rune, len(lib.glyphs))
	for i, g := range lib.glyphs {
		out[i] = g.CodePoint
	}
	return out
}

// Index returns the glyph index of code point r.
func (lib *GlyphLibrary) Index(r rune) (int, bool) {
	i := sort.Search(len(lib.glyphs), func(i int) bool {
		return lib.glyphs[i].CodePoint >= r
	})
	if i < len(lib.glyphs) && lib.glyphs[i].CodePoint == r {
		return i, true
	}
	return 0, false
}

// Weights returns the weight matrix W, pixels x glyphs. Column g is the
// weight vector of glyph g. The matrix is shared; callers must not modify
// it.
func (lib *GlyphLibrary) Weights() *mat.Dense {
	return lib.weights
}
