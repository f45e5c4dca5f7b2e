package quantification

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"gastruloid/internal/models"
)

// Resample linearly interpolates a curve sampled evenly over [0, 1] onto n evenly
// spaced points of the same axis. A single-sample curve becomes a constant.
func Resample(curve []float64, n int) ([]float64, error) {
	out := make([]float64, n)
	switch len(curve) {
	case 0:
		return out, nil
	case 1:
		for i := range out {
			out[i] = curve[0]
		}
		return out, nil
	}

	xs := floats.Span(make([]float64, len(curve)), 0, 1)
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, curve); err != nil {
		return nil, errors.Wrap(err, "failed to fit intensity curve")
	}

	if n == 1 {
		out[0] = pl.Predict(0)
		return out, nil
	}
	at := floats.Span(make([]float64, n), 0, 1)
	for i, x := range at {
		out[i] = pl.Predict(x)
	}
	return out, nil
}

// toProfile resamples a column-sum curve to a full-length intensity profile
func toProfile(curve []float64) (models.IntensityProfile, error) {
	samples, err := Resample(curve, models.ProfileLength)
	if err != nil {
		return nil, err
	}
	return models.IntensityProfile(samples), nil
}
