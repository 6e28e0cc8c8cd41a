package nmfascii

import (
	"image"
	"strings"

	"github.com/wbrown/nmfascii/imageutil"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

// Assignment is the glyph chosen for every block of a BlockGrid.
type Assignment struct {
	Grid BlockGrid

	// Index holds one glyph index per block, in block order (row-major
	// over the grid).
	Index []int
}

// At returns the glyph index assigned to block (bx, by).
func (a Assignment) At(bx, by int) int {
	return a.Index[a.Grid.Index(bx, by)]
}

// SelectGlyphs picks, for each block column b of h, the glyph with the
// largest activation. Ties go to the lowest glyph index.
func SelectGlyphs(h mat.Matrix, grid BlockGrid) Assignment {
	glyphs, blocks := h.Dims()
	a := Assignment{Grid: grid, Index: make([]int, blocks)}

	for b := 0; b < blocks; b++ {
		best, bestVal := 0, h.At(0, b)
		for g := 1; g < glyphs; g++ {
			if v := h.At(g, b); v > bestVal {
				best, bestVal = g, v
			}
		}
		a.Index[b] = best
	}
	return a
}

// Reconstruct draws the assigned glyph bitmaps into a new image the size
// of the grid. Raw glyph pixels are copied, not weights.
func Reconstruct(a Assignment, lib *GlyphLibrary) *image.Gray {
	img := imageutil.NewGray(a.Grid.Cols*a.Grid.Width, a.Grid.Rows*a.Grid.Height)
	for b, g := range a.Index {
		draw.Draw(img, a.Grid.Rect(b), lib.Glyph(g).Bitmap, image.Point{}, draw.Src)
	}
	return img
}

// Text renders the assignment as text, one line per block row, each line
// terminated by a newline.
func (a Assignment) Text(lib *GlyphLibrary) string {
	var sb strings.Builder
	sb.Grow(a.Grid.Rows * (a.Grid.Cols + 1))
	for by := 0; by < a.Grid.Rows; by++ {
		for bx := 0; bx < a.Grid.Cols; bx++ {
			sb.WriteRune(lib.Glyph(a.At(bx, by)).CodePoint)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Histogram counts how many blocks use each glyph index.
func (a Assignment) Histogram(glyphs int) []int {
	counts := make([]int, glyphs)
	for _, g := range a.Index {
		counts[g]++
	}
	return counts
}
