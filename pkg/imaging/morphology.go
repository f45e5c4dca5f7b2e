package imaging

import "math"

// Mask is a binary image in row-major order
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an empty mask
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is foreground
func (m *Mask) At(x, y int) bool {
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y)
func (m *Mask) Set(x, y int, v bool) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// FillHoles sets every background pixel that cannot reach the image border
// through 4-connected background.
func FillHoles(m *Mask) *Mask {
	w, h := m.Width, m.Height
	reached := make([]bool, len(m.Pix))
	queue := make([]int, 0, 2*(w+h))

	seed := func(x, y int) {
		i := y*w + x
		if !m.Pix[i] && !reached[i] {
			reached[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		if x > 0 {
			seed(x-1, y)
		}
		if x < w-1 {
			seed(x+1, y)
		}
		if y > 0 {
			seed(x, y-1)
		}
		if y < h-1 {
			seed(x, y+1)
		}
	}

	out := NewMask(w, h)
	for i := range out.Pix {
		out.Pix[i] = !reached[i]
	}
	return out
}

// diskHalfWidths returns, for each row offset -r..r of a disk of radius r, the
// horizontal half-width of the disk on that row.
func diskHalfWidths(r int) []int {
	hw := make([]int, 2*r+1)
	for dy := -r; dy <= r; dy++ {
		hw[dy+r] = int(math.Floor(math.Sqrt(float64(r*r - dy*dy))))
	}
	return hw
}

// rowPrefix counts foreground pixels: prefix[y*(w+1)+x] is the count in row y before column x
func rowPrefix(m *Mask) []int {
	w := m.Width
	prefix := make([]int, (w+1)*m.Height)
	for y := 0; y < m.Height; y++ {
		base := y * (w + 1)
		for x := 0; x < w; x++ {
			v := 0
			if m.Pix[y*w+x] {
				v = 1
			}
			prefix[base+x+1] = prefix[base+x] + v
		}
	}
	return prefix
}

// Dilate grows the mask by a disk of radius r. Pixels outside the image count as background.
func Dilate(m *Mask, r int) *Mask {
	w, h := m.Width, m.Height
	hw := diskHalfWidths(r)
	prefix := rowPrefix(m)
	out := NewMask(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k, half := range hw {
				yy := y + k - r
				if yy < 0 || yy >= h {
					continue
				}
				x0, x1 := max(0, x-half), min(w-1, x+half)
				base := yy * (w + 1)
				if prefix[base+x1+1]-prefix[base+x0] > 0 {
					out.Pix[y*w+x] = true
					break
				}
			}
		}
	}
	return out
}

// Erode shrinks the mask by a disk of radius r. Pixels outside the image count as
// foreground so regions touching the border are not eaten away.
func Erode(m *Mask, r int) *Mask {
	w, h := m.Width, m.Height
	hw := diskHalfWidths(r)
	prefix := rowPrefix(m)
	out := NewMask(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := true
			for k, half := range hw {
				yy := y + k - r
				if yy < 0 || yy >= h {
					continue
				}
				x0, x1 := max(0, x-half), min(w-1, x+half)
				base := yy * (w + 1)
				if prefix[base+x1+1]-prefix[base+x0] < x1-x0+1 {
					keep = false
					break
				}
			}
			out.Pix[y*w+x] = keep
		}
	}
	return out
}

// Close merges regions separated by gaps narrower than the disk: dilation followed by erosion
func Close(m *Mask, r int) *Mask {
	if r <= 0 {
		return m
	}
	return Erode(Dilate(m, r), r)
}

// RemoveSmallObjects drops 4-connected components with fewer than minSize pixels
func RemoveSmallObjects(m *Mask, minSize int) *Mask {
	labels, n := Label(m, Connectivity4)
	areas := make([]int, n+1)
	for _, l := range labels {
		areas[l]++
	}

	out := NewMask(m.Width, m.Height)
	for i, l := range labels {
		out.Pix[i] = l > 0 && areas[l] >= minSize
	}
	return out
}
