package imageutil

import (
	"image"
	"image/color"
)

// Luma returns the BT.601 luminance of an 8-bit RGB triple:
// Y = 0.299*R + 0.587*G + 0.114*B, rounded to the nearest integer.
func Luma(r, g, b uint8) uint8 {
	// Integer math scaled by 1000, +500 rounds to nearest
	lum := (299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000
	if lum > 255 {
		lum = 255
	}
	return uint8(lum)
}

// ToGray converts any image to a single-channel 8-bit grayscale image
// anchored at the origin.
//
// Gray inputs are copied as-is. Everything else goes through straight
// (non-premultiplied) RGB and the BT.601 luma formula, so alpha is
// ignored rather than blended against a background.
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := NewGray(bounds.Dx(), bounds.Dy())

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < bounds.Dy(); y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+bounds.Dx()],
				src.Pix[srcOff:srcOff+bounds.Dx()])
		}
		return gray
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			gray.SetGray(x, y, color.Gray{Y: Luma(c.R, c.G, c.B)})
		}
	}

	return gray
}

// ToFloat returns the pixels of a grayscale image as row-major float64
// values in [0, 255].
func ToFloat(img *image.Gray) []float64 {
	bounds := img.Bounds()
	out := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out = append(out, float64(img.GrayAt(x, y).Y))
		}
	}
	return out
}

// ClampUint8 rounds v to the nearest integer and clamps it to [0, 255].
// NaN maps to 0.
func ClampUint8(v float64) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
