package nmfascii

import (
	"fmt"
	"image"

	"github.com/wbrown/nmfascii/imageutil"
	"gonum.org/v1/gonum/mat"
)

// BlockGrid describes how a padded image is cut into glyph-sized blocks.
//
// Blocks are numbered row-major over the grid: block (bx, by) is column
// by*Cols + bx of the data matrix. Pixels inside a block are numbered
// row-major too: pixel (px, py) is row py*Width + px. Glyph weight vectors
// use the same pixel order.
type BlockGrid struct {
	Cols, Rows    int // blocks across and down
	Width, Height int // block size in pixels
}

// NewBlockGrid returns the grid for img, which must already be padded to a
// multiple of the block size.
func NewBlockGrid(img *image.Gray, width, height int) (BlockGrid, error) {
	if width <= 0 || height <= 0 {
		return BlockGrid{}, fmt.Errorf("%w: block size %dx%d", ErrDimensionMismatch, width, height)
	}
	b := img.Bounds()
	if b.Empty() {
		return BlockGrid{}, fmt.Errorf("%w: empty image", ErrDimensionMismatch)
	}
	if b.Dx()%width != 0 || b.Dy()%height != 0 {
		return BlockGrid{}, fmt.Errorf("%w: image %dx%d is not a multiple of block %dx%d",
			ErrDimensionMismatch, b.Dx(), b.Dy(), width, height)
	}
	return BlockGrid{
		Cols:   b.Dx() / width,
		Rows:   b.Dy() / height,
		Width:  width,
		Height: height,
	}, nil
}

// Len returns the number of blocks.
func (g BlockGrid) Len() int {
	return g.Cols * g.Rows
}

// Pixels returns the number of pixels per block.
func (g BlockGrid) Pixels() int {
	return g.Width * g.Height
}

// Bounds returns the pixel rectangle covered by the whole grid.
func (g BlockGrid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Cols*g.Width, g.Rows*g.Height)
}

// Index returns the block number of block (bx, by).
func (g BlockGrid) Index(bx, by int) int {
	return by*g.Cols + bx
}

// Coord is the inverse of Index.
func (g BlockGrid) Coord(b int) (bx, by int) {
	return b % g.Cols, b / g.Cols
}

// Rect returns the pixel rectangle of block b.
func (g BlockGrid) Rect(b int) image.Rectangle {
	bx, by := g.Coord(b)
	x0, y0 := bx*g.Width, by*g.Height
	return image.Rect(x0, y0, x0+g.Width, y0+g.Height)
}

// Partition builds the data matrix V: one column per block, one row per
// block pixel, holding intensities in [0, 255].
func Partition(img *image.Gray, grid BlockGrid) *mat.Dense {
	origin := img.Bounds().Min
	v := mat.NewDense(grid.Pixels(), grid.Len(), nil)
	col := make([]float64, grid.Pixels())

	for b := 0; b < grid.Len(); b++ {
		r := grid.Rect(b).Add(origin)
		for py := 0; py < grid.Height; py++ {
			for px := 0; px < grid.Width; px++ {
				col[py*grid.Width+px] = float64(img.GrayAt(r.Min.X+px, r.Min.Y+py).Y)
			}
		}
		v.SetCol(b, col)
	}
	return v
}

// Assemble is the inverse of Partition: it tiles the columns of v back
// into an image. Values are rounded and clamped to [0, 255].
func Assemble(v mat.Matrix, grid BlockGrid) *image.Gray {
	img := imageutil.NewGray(grid.Cols*grid.Width, grid.Rows*grid.Height)

	for b := 0; b < grid.Len(); b++ {
		r := grid.Rect(b)
		for py := 0; py < grid.Height; py++ {
			row := img.PixOffset(r.Min.X, r.Min.Y+py)
			for px := 0; px < grid.Width; px++ {
				img.Pix[row+px] = imageutil.ClampUint8(v.At(py*grid.Width+px, b))
			}
		}
	}
	return img
}
