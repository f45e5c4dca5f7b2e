package quantification

import (
	"math"
	"testing"
)

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		curve    []float64
		n        int
		expected []float64
	}{
		{"linear", []float64{0, 1, 2}, 5, []float64{0, 0.5, 1, 1.5, 2}},
		{"single sample", []float64{7}, 3, []float64{7, 7, 7}},
		{"empty", nil, 3, []float64{0, 0, 0}},
		{"downsample", []float64{0, 1, 2, 3, 4}, 3, []float64{0, 2, 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resample(tc.curve, tc.n)
			if err != nil {
				t.Fatalf("Resample failed: %v", err)
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("Expected %d samples, got %d", len(tc.expected), len(got))
			}
			for i := range got {
				if math.Abs(got[i]-tc.expected[i]) > 1e-9 {
					t.Errorf("Sample %d: expected %f, got %f", i, tc.expected[i], got[i])
				}
			}
		})
	}
}
