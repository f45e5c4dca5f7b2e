package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// angleEpsilon is the smallest rotation, in degrees, that is actually applied
const angleEpsilon = 1e-6

// newLike allocates an empty image of the same pixel type as img with bounds r
func newLike(img image.Image, r image.Rectangle) draw.Image {
	switch img.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.NRGBA:
		return image.NewNRGBA(r)
	case *image.NRGBA64:
		return image.NewNRGBA64(r)
	case *image.RGBA:
		return image.NewRGBA(r)
	default:
		return image.NewRGBA64(r)
	}
}

// Rotate turns img counter-clockwise (as viewed) by deg degrees about its centre.
// The canvas grows to hold the whole rotated image and uncovered pixels are zero.
// Pixel type is preserved for the common grey and colour types.
func Rotate(img image.Image, deg float64) image.Image {
	if math.Abs(deg) < angleEpsilon {
		return img
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	nw := int(math.Ceil(math.Abs(w*c) + math.Abs(h*s) - angleEpsilon))
	nh := int(math.Ceil(math.Abs(w*s) + math.Abs(h*c) - angleEpsilon))
	nw, nh = max(nw, 1), max(nh, 1)

	dst := newLike(img, image.Rect(0, 0, nw, nh))

	cx := float64(b.Min.X) + w/2
	cy := float64(b.Min.Y) + h/2
	ncx, ncy := float64(nw)/2, float64(nh)/2

	// Source to destination. With y pointing down a visual counter-clockwise
	// turn maps (x, y) to (x cos + y sin, -x sin + y cos).
	s2d := f64.Aff3{
		c, s, ncx - (c*cx + s*cy),
		-s, c, ncy - (-s*cx + c*cy),
	}
	draw.BiLinear.Transform(dst, s2d, img, b, draw.Src, nil)

	return dst
}

// FlipHorizontal mirrors img left to right
func FlipHorizontal(img image.Image) image.Image {
	b := img.Bounds()
	dst := newLike(img, image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(b.Dx()-1-x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
