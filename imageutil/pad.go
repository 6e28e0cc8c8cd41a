package imageutil

import (
	"image"

	"golang.org/x/image/draw"
)

// Padding records how many pixels were added to each side of an image.
type Padding struct {
	Top, Bottom, Left, Right int
}

// IsZero reports whether no padding was added.
func (p Padding) IsZero() bool {
	return p == Padding{}
}

// CalcPads returns the leading and trailing padding needed along one axis
// to round size up to a multiple of block.
//
// The shortfall is split evenly; an odd leftover pixel goes to the trailing
// side. An axis that is already a multiple of block gets no padding.
func CalcPads(size, block int) (lead, trail int) {
	if block <= 0 || size%block == 0 {
		return 0, 0
	}
	remainder := block - size%block
	lead = remainder / 2
	trail = remainder - lead
	return lead, trail
}

// PadGray pads img with fill so that its width is a multiple of blockW and
// its height a multiple of blockH. The original pixels are pasted at
// (Left, Top). The result is always a new image, even when no padding was
// needed.
func PadGray(img *image.Gray, blockW, blockH int, fill uint8) (*image.Gray, Padding) {
	bounds := img.Bounds()
	var pad Padding
	pad.Left, pad.Right = CalcPads(bounds.Dx(), blockW)
	pad.Top, pad.Bottom = CalcPads(bounds.Dy(), blockH)

	width := bounds.Dx() + pad.Left + pad.Right
	height := bounds.Dy() + pad.Top + pad.Bottom
	padded := NewFilledGray(width, height, fill)

	dst := image.Rect(pad.Left, pad.Top, pad.Left+bounds.Dx(), pad.Top+bounds.Dy())
	draw.Draw(padded, dst, img, bounds.Min, draw.Src)

	return padded, pad
}
