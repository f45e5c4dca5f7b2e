package visualization

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"

	"gastruloid/internal/models"
	"gastruloid/pkg/fileaccess"
)

// rampProfile rises linearly from 0 to peak along the axis
func rampProfile(peak float64) models.IntensityProfile {
	return models.IntensityProfile(floats.Span(make([]float64, models.ProfileLength), 0, peak))
}

func testResults() *models.Results {
	signal := models.ZeroProfiles()
	signal[models.Dapi] = rampProfile(1)
	signal[models.Red] = rampProfile(0.5)
	signal[models.Green] = rampProfile(0.25)

	average := models.ZeroProfiles()
	average[models.Dapi] = rampProfile(0.5)
	average[models.Red] = rampProfile(0.25)

	return &models.Results{
		Sets: []models.SetResult{
			models.Success(1, "gast_1", signal),
			models.Degraded(2, "gast_2", "no object found in dapi channel"),
		},
		Average: average,
	}
}

func TestRenderWithoutCyanMarker(t *testing.T) {
	root := t.TempDir()
	r := NewRenderer(&fileaccess.FSAccess{}, root, nil)

	markers := models.MarkerMap{models.Red: "Bra", models.Green: "Sox2"}
	if err := r.Render(testResults(), markers, "run"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, name := range []string{"set_1.png", "average_dapi.png", "average_red.png", "average_green.png"} {
		if _, err := os.Stat(filepath.Join(root, "run", name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
	for _, name := range []string{"set_2.png", "average_cyan.png"} {
		if _, err := os.Stat(filepath.Join(root, "run", name)); err == nil {
			t.Errorf("Did not expect %s", name)
		}
	}

	if len(r.Written()) != 4 {
		t.Errorf("Expected 4 figures, got %v", r.Written())
	}
}

func TestRenderWithCyanMarker(t *testing.T) {
	root := t.TempDir()
	r := NewRenderer(&fileaccess.FSAccess{}, root, nil)

	markers := models.MarkerMap{models.Red: "Bra", models.Green: "Sox2", models.Cyan: "Cdx2"}
	if err := r.Render(testResults(), markers, "run"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	f, err := os.Open(filepath.Join(root, "run", "average_cyan.png"))
	if err != nil {
		t.Fatalf("Expected average_cyan.png: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Figure is not a valid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != figureWidth || b.Dy() != figureHeight {
		t.Errorf("Unexpected figure size %v", b)
	}
}

func TestRenderNoSetsCreatesDirectoryOnly(t *testing.T) {
	root := t.TempDir()
	r := NewRenderer(&fileaccess.FSAccess{}, root, nil)

	if err := r.Render(&models.Results{}, models.MarkerMap{}, "empty"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(root, "empty"))
	if err != nil {
		t.Fatalf("Output directory not created: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no figures, got %d", len(entries))
	}
}

func TestHasSignalIgnoresUnplottedCyan(t *testing.T) {
	profiles := models.ZeroProfiles()
	profiles[models.Cyan] = rampProfile(1)

	if hasSignal(profiles, models.MarkerMap{models.Red: "Bra"}) {
		t.Error("Cyan signal should not count without a cyan marker")
	}
	if !hasSignal(profiles, models.MarkerMap{models.Cyan: "Cdx2"}) {
		t.Error("Cyan signal should count with a cyan marker")
	}
}

func TestSetSeriesOmitsCyanWithoutMarker(t *testing.T) {
	r := NewRenderer(&fileaccess.FSAccess{}, t.TempDir(), nil)

	profiles := testResults().Sets[0].Profiles
	profiles[models.Cyan] = rampProfile(0.75)
	set := models.Success(1, "gast_1", profiles)

	names := func(series []chart.Series) []string {
		var out []string
		for _, s := range series {
			out = append(out, s.GetName())
		}
		return out
	}

	got := names(r.setSeries(set, models.MarkerMap{models.Red: "Bra", models.Green: "Sox2"}))
	want := []string{"DAPI", "Bra", "Sox2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected series %v without a cyan marker, got %v", want, got)
	}

	got = names(r.setSeries(set, models.MarkerMap{models.Red: "Bra", models.Green: "Sox2", models.Cyan: "Cdx2"}))
	want = []string{"DAPI", "Bra", "Sox2", "Cdx2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected series %v with a cyan marker, got %v", want, got)
	}
}

func TestMontage(t *testing.T) {
	a := image.NewGray16(image.Rect(0, 0, 3, 2))
	a.SetGray16(2, 1, color.Gray16{Y: 400})
	a.SetGray16(0, 0, color.Gray16{Y: 200})
	b := image.NewGray16(image.Rect(0, 0, 2, 4))

	m := Montage([]image.Image{a, b})
	if m.Bounds().Dx() != 5 || m.Bounds().Dy() != 4 {
		t.Fatalf("Unexpected montage size %v", m.Bounds())
	}
	if m.GrayAt(2, 1).Y != 255 {
		t.Errorf("Peak should map to 255, got %d", m.GrayAt(2, 1).Y)
	}
	if m.GrayAt(0, 0).Y != 127 {
		t.Errorf("Half peak should map to 127, got %d", m.GrayAt(0, 0).Y)
	}
	if m.GrayAt(4, 3).Y != 0 {
		t.Error("Blank image should stay black")
	}
}
