package imaging

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Connectivity selects the neighbourhood used when labeling components
type Connectivity int

const (
	Connectivity4 Connectivity = 4
	Connectivity8 Connectivity = 8
)

// Label assigns 1..n to each connected foreground component; background is 0
func Label(m *Mask, conn Connectivity) ([]int, int) {
	w, h := m.Width, m.Height
	labels := make([]int, len(m.Pix))
	queue := make([]int, 0, 64)
	n := 0

	for start, fg := range m.Pix {
		if !fg || labels[start] != 0 {
			continue
		}
		n++
		labels[start] = n
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if conn == Connectivity4 && dx != 0 && dy != 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if m.Pix[j] && labels[j] == 0 {
						labels[j] = n
						queue = append(queue, j)
					}
				}
			}
		}
	}

	return labels, n
}

// Region holds the measurements of one labeled component
type Region struct {
	Label int
	Area  int

	// Bounding box; Max is exclusive
	MinX, MinY int
	MaxX, MaxY int

	CentroidX float64
	CentroidY float64

	// Central second moments normalized by area
	Mu20, Mu02, Mu11 float64
}

// BBox returns the bounding box of the region
func (r Region) BBox() image.Rectangle {
	return image.Rect(r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// BBoxArea returns the area of the bounding box
func (r Region) BBoxArea() int {
	return (r.MaxX - r.MinX) * (r.MaxY - r.MinY)
}

// Orientation returns the angle, in degrees, between the horizontal axis and the
// major axis of the region's best-fit ellipse. Angles are counter-clockwise as the
// image is viewed (y pointing up) and lie in (-90, 90].
func (r Region) Orientation() float64 {
	cov := mat.NewSymDense(2, []float64{r.Mu20, r.Mu11, r.Mu11, r.Mu02})

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return 0
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues are ascending, so the major axis is the last column
	vx, vy := vecs.At(0, 1), vecs.At(1, 1)
	angle := math.Atan2(-vy, vx) * 180 / math.Pi

	for angle > 90 {
		angle -= 180
	}
	for angle <= -90 {
		angle += 180
	}
	return angle
}

// Regions measures every component of a label image produced by Label
func Regions(labels []int, n, width int) []Region {
	if n == 0 {
		return nil
	}

	regions := make([]Region, n)
	sumX := make([]float64, n)
	sumY := make([]float64, n)
	for i := range regions {
		regions[i] = Region{Label: i + 1, MinX: math.MaxInt, MinY: math.MaxInt}
	}

	for i, l := range labels {
		if l == 0 {
			continue
		}
		x, y := i%width, i/width
		r := &regions[l-1]
		r.Area++
		sumX[l-1] += float64(x)
		sumY[l-1] += float64(y)
		r.MinX = min(r.MinX, x)
		r.MinY = min(r.MinY, y)
		r.MaxX = max(r.MaxX, x+1)
		r.MaxY = max(r.MaxY, y+1)
	}

	for i := range regions {
		a := float64(regions[i].Area)
		regions[i].CentroidX = sumX[i] / a
		regions[i].CentroidY = sumY[i] / a
	}

	for i, l := range labels {
		if l == 0 {
			continue
		}
		r := &regions[l-1]
		dx := float64(i%width) - r.CentroidX
		dy := float64(i/width) - r.CentroidY
		r.Mu20 += dx * dx
		r.Mu02 += dy * dy
		r.Mu11 += dx * dy
	}

	for i := range regions {
		a := float64(regions[i].Area)
		regions[i].Mu20 /= a
		regions[i].Mu02 /= a
		regions[i].Mu11 /= a
	}

	return regions
}

// MeasureRegions labels a mask with 8-connectivity and measures each component
func MeasureRegions(m *Mask) []Region {
	labels, n := Label(m, Connectivity8)
	return Regions(labels, n, m.Width)
}

// Largest returns the region with the greatest pixel area
func Largest(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Area > best.Area {
			best = r
		}
	}
	return best, true
}

// LargestBBox returns the region with the greatest bounding box area
func LargestBBox(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	best := regions[0]
	for _, r := range regions[1:] {
		if r.BBoxArea() > best.BBoxArea() {
			best = r
		}
	}
	return best, true
}
