// Package imaging holds the image primitives the quantification pipeline is built on:
// decoding, intensity planes, thresholding, binary morphology, connected-component
// measurement and geometric transforms.
package imaging

import (
	"image"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// Load decodes a TIFF image. 8 and 16 bit grey images keep their native pixel type.
// An error for a file that does not exist satisfies errors.Is(err, fs.ErrNotExist).
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer file.Close()

	img, err := tiff.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	return img, nil
}

// Placeholder returns the 1x1 zero image that stands in for a missing channel file
func Placeholder() image.Image {
	return image.NewGray16(image.Rect(0, 0, 1, 1))
}
