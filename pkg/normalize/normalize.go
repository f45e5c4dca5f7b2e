// Package normalize scales the per-channel profile matrices of a run into [0, 1]
// and computes the cohort average profile.
package normalize

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"gastruloid/internal/models"
)

// Normalize replaces NaN entries with 0, divides each channel matrix by its global
// maximum (a zero maximum leaves the matrix as is) and stores the column means in
// results.Average. Normalized rows are written back to their set records and the
// divisors are kept in results.Maxima. A run without sets is returned unchanged.
func Normalize(results *models.Results) *models.Results {
	for _, c := range models.Channels {
		m := results.Matrices[c]
		if m == nil {
			results.Average[c] = models.NewZeroProfile()
			continue
		}

		m.Apply(func(_, _ int, v float64) float64 {
			if math.IsNaN(v) {
				return 0
			}
			return v
		}, m)

		peak := mat.Max(m)
		if peak != 0 {
			m.Apply(func(_, _ int, v float64) float64 { return v / peak }, m)
		}
		results.Maxima[c] = peak

		results.Average[c] = columnMean(m)

		for i := range results.Sets {
			if i >= m.RawMatrix().Rows {
				break
			}
			results.Sets[i].Profiles[c] = models.IntensityProfile(mat.Row(nil, i, m))
		}
	}

	return results
}

func columnMean(m *mat.Dense) models.IntensityProfile {
	_, cols := m.Dims()
	avg := make(models.IntensityProfile, cols)
	col := make([]float64, m.RawMatrix().Rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		avg[j] = stat.Mean(col, nil)
	}
	return avg
}
