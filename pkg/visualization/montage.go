package visualization

import (
	"image"
	"image/color"

	"gastruloid/pkg/imaging"
)

// Montage places images side by side on a grey canvas, each scaled to 8 bits by
// its own maximum intensity. Shorter images are top-aligned.
func Montage(images []image.Image) *image.Gray {
	width, height := 0, 0
	for _, img := range images {
		b := img.Bounds()
		width += b.Dx()
		height = max(height, b.Dy())
	}

	out := image.NewGray(image.Rect(0, 0, max(width, 1), max(height, 1)))
	offset := 0
	for _, img := range images {
		plane := imaging.ToPlane(img)

		peak := 0.0
		for _, v := range plane.Pix {
			peak = max(peak, v)
		}

		for y := 0; y < plane.Height; y++ {
			for x := 0; x < plane.Width; x++ {
				var v uint8
				if peak > 0 {
					v = uint8(plane.At(x, y) / peak * 255)
				}
				out.SetGray(offset+x, y, color.Gray{Y: v})
			}
		}
		offset += plane.Width
	}

	return out
}
