package imaging

import "gonum.org/v1/gonum/floats"

// otsuBins is the histogram resolution used for automatic thresholding
const otsuBins = 256

// OtsuThreshold picks the threshold that maximizes the between-class variance of a
// 256-bin histogram spanning the plane's own intensity range. The returned value is
// a bin centre; foreground is value > threshold. A uniform plane returns its value,
// so thresholding it yields no foreground.
func OtsuThreshold(p *Plane) float64 {
	if len(p.Pix) == 0 {
		return 0
	}

	lo, hi := floats.Min(p.Pix), floats.Max(p.Pix)
	if hi == lo {
		return lo
	}

	var hist [otsuBins]float64
	scale := otsuBins / (hi - lo)
	for _, v := range p.Pix {
		idx := int((v - lo) * scale)
		if idx >= otsuBins {
			idx = otsuBins - 1
		}
		hist[idx]++
	}

	binWidth := (hi - lo) / otsuBins
	center := func(i int) float64 {
		return lo + (float64(i)+0.5)*binWidth
	}

	total := float64(len(p.Pix))
	var sum float64
	for i := 0; i < otsuBins; i++ {
		sum += hist[i] * center(i)
	}

	var sumB, wB, maxVar float64
	threshold := center(0)
	for t := 0; t < otsuBins-1; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += hist[t] * center(t)
		mB := sumB / wB
		mF := (sum - sumB) / wF

		// Between-class variance
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVar {
			maxVar = variance
			threshold = center(t)
		}
	}

	return threshold
}
