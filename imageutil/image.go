// Package imageutil provides the pure Go image plumbing around the glyph
// solver: decoding and encoding, grayscale conversion, block padding and
// resizing.
//
// Every function here works on *image.Gray with bounds anchored at the
// origin. Images coming from decoders or sub-images are normalized by
// ToGray before anything else touches them.
package imageutil

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	// White is the background intensity used for padding and blank glyphs.
	White uint8 = 255

	// Black is the darkest storable intensity.
	Black uint8 = 0
)

// NewGray creates a new grayscale image of the given size, anchored at the
// origin and filled with black.
func NewGray(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// NewFilledGray creates a new grayscale image filled with v.
func NewFilledGray(width, height int, v uint8) *image.Gray {
	img := NewGray(width, height)
	Fill(img, v)
	return img
}

// Fill sets every pixel of img to v.
func Fill(img *image.Gray, v uint8) {
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: v}),
		image.Point{}, draw.Src)
}

// CloneGray creates a deep copy of img, re-anchored at the origin.
func CloneGray(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	clone := NewGray(bounds.Dx(), bounds.Dy())
	draw.Draw(clone, clone.Bounds(), img, bounds.Min, draw.Src)
	return clone
}

// EqualGray reports whether two grayscale images have the same size and
// identical pixels. Bounds offsets are ignored.
func EqualGray(a, b *image.Gray) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			if a.GrayAt(ab.Min.X+x, ab.Min.Y+y) != b.GrayAt(bb.Min.X+x, bb.Min.Y+y) {
				return false
			}
		}
	}
	return true
}

// GrayToRGBA converts a grayscale image to a 3-channel opaque RGBA image
// with R = G = B = Y.
func GrayToRGBA(gray *image.Gray) *image.RGBA {
	bounds := gray.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			rgba.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	return rgba
}
