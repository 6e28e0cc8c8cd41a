package imageutil

import (
	"image"
	"math"
	"math/rand/v2"
)

// CreateGradientImage creates a horizontal gradient test image running from
// black on the left to white on the right.
func CreateGradientImage(width, height int) *image.Gray {
	img := NewGray(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255 * x / max(width-1, 1))
			img.Pix[y*img.Stride+x] = v
		}
	}
	return img
}

// CreateVerticalGradientImage creates a vertical gradient test image.
func CreateVerticalGradientImage(width, height int) *image.Gray {
	img := NewGray(width, height)
	for y := 0; y < height; y++ {
		v := uint8(255 * y / max(height-1, 1))
		for x := 0; x < width; x++ {
			img.Pix[y*img.Stride+x] = v
		}
	}
	return img
}

// CreateCheckerboardImage creates a black and white checkerboard.
func CreateCheckerboardImage(width, height, squareSize int) *image.Gray {
	img := NewGray(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/squareSize)+(y/squareSize))%2 == 0 {
				img.Pix[y*img.Stride+x] = White
			}
		}
	}
	return img
}

// CreateSolidImage creates a solid gray image.
func CreateSolidImage(width, height int, v uint8) *image.Gray {
	return NewFilledGray(width, height, v)
}

// CreateNoiseImage creates an image of uniformly random intensities drawn
// from rng.
func CreateNoiseImage(width, height int, rng *rand.Rand) *image.Gray {
	img := NewGray(width, height)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

// CreateHalfImage creates an image whose top rows (those with y < split)
// are top and the remaining rows are bottom.
func CreateHalfImage(width, height, split int, top, bottom uint8) *image.Gray {
	img := NewFilledGray(width, height, bottom)
	for y := 0; y < split && y < height; y++ {
		for x := 0; x < width; x++ {
			img.Pix[y*img.Stride+x] = top
		}
	}
	return img
}

// CalculateMSE calculates the Mean Squared Error between two grayscale
// images. Images of different sizes return math.MaxFloat64.
func CalculateMSE(img1, img2 *image.Gray) float64 {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return math.MaxFloat64
	}

	width, height := b1.Dx(), b1.Dy()
	var sumSq float64
	count := float64(width * height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v1 := float64(img1.GrayAt(b1.Min.X+x, b1.Min.Y+y).Y)
			v2 := float64(img2.GrayAt(b2.Min.X+x, b2.Min.Y+y).Y)
			d := v1 - v2
			sumSq += d * d
		}
	}

	return sumSq / count
}
