package imaging

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// Plane is a single-intensity view of an image in row-major order
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zero plane
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// At returns the intensity at (x, y)
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Set stores the intensity at (x, y)
func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// Luminance weights for colour to grey conversion (ITU-R BT.709)
const (
	lumR = 0.2125
	lumG = 0.7154
	lumB = 0.0721
)

// ToPlane converts an image to single intensity. Grey images keep their raw pixel
// values; colour images become luminance in [0, 1].
func ToPlane(img image.Image) *Plane {
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				p.Pix[y*p.Width+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				p.Pix[y*p.Width+x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				p.Pix[y*p.Width+x] = (lumR*float64(r) + lumG*float64(g) + lumB*float64(bl)) / 65535.0
			}
		}
	}

	return p
}

// Threshold marks every pixel strictly above t as foreground
func Threshold(p *Plane, t float64) *Mask {
	m := NewMask(p.Width, p.Height)
	for i, v := range p.Pix {
		m.Pix[i] = v > t
	}
	return m
}

// NonZeroMean returns the mean of the non-zero pixels. ok is false when every pixel is zero.
func NonZeroMean(p *Plane) (mean float64, ok bool) {
	values := make([]float64, 0, len(p.Pix))
	for _, v := range p.Pix {
		if v != 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

// ColumnSums crops the plane to r and sums each column, giving one value per column of r
func ColumnSums(p *Plane, r image.Rectangle) []float64 {
	r = r.Intersect(image.Rect(0, 0, p.Width, p.Height))
	sums := make([]float64, r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := p.Pix[y*p.Width : (y+1)*p.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			sums[x-r.Min.X] += row[x]
		}
	}
	return sums
}
