package quantification

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/stat"

	"gastruloid/internal/models"
)

const (
	testWidth  = 120
	testHeight = 60
)

// specimen is the rectangle every synthetic set places its object in
var specimen = image.Rect(20, 20, 100, 40)

// createTestImage creates a grayscale test image with the specified dimensions and pattern
func createTestImage(width, height int, pattern func(x, y int) uint16) image.Image {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}
	return img
}

func writeTIFF(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

// createTestSet writes the dapi, red and green images of one set. The red channel
// brightens from left to right; greenLeft places the green marker on the left half.
func createTestSet(t *testing.T, dir string, index int, greenLeft bool) {
	t.Helper()
	name := models.SetName("gast", index)
	inside := func(x, y int) bool { return image.Pt(x, y).In(specimen) }

	dapi := createTestImage(testWidth, testHeight, func(x, y int) uint16 {
		if inside(x, y) {
			return 1000
		}
		return 0
	})
	red := createTestImage(testWidth, testHeight, func(x, y int) uint16 {
		if inside(x, y) {
			return uint16(10 * x)
		}
		return 0
	})
	greenX := 25
	if !greenLeft {
		greenX = 75
	}
	green := createTestImage(testWidth, testHeight, func(x, y int) uint16 {
		if x >= greenX && x < greenX+20 && y >= 22 && y < 38 {
			return 800
		}
		return 0
	})

	writeTIFF(t, models.ChannelFile(dir, name, "c1"), dapi)
	writeTIFF(t, models.ChannelFile(dir, name, "c2"), red)
	writeTIFF(t, models.ChannelFile(dir, name, "c3"), green)
}

func testParams(dir string) *Params {
	return &Params{
		Directory:     dir,
		BaseName:      "gast",
		Channels:      models.ChannelMap{models.Dapi: "c1", models.Red: "c2", models.Green: "c3"},
		MinBlobSize:   200,
		ClosingRadius: 3,
		Workers:       1,
	}
}

type countingObserver struct {
	mu        sync.Mutex
	processed map[models.SetStatus]int
	missing   []models.Channel
}

func newCountingObserver() *countingObserver {
	return &countingObserver{processed: map[models.SetStatus]int{}}
}

func (o *countingObserver) SetProcessed(status models.SetStatus, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.processed[status]++
}

func (o *countingObserver) MissingFile(channel models.Channel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.missing = append(o.missing, channel)
}

func checkProfiles(t *testing.T, res models.SetResult) {
	t.Helper()
	for c, p := range res.Profiles {
		if len(p) != models.ProfileLength {
			t.Fatalf("Channel %s: expected %d samples, got %d", models.Channel(c), models.ProfileLength, len(p))
		}
		for i, v := range p {
			if v < 0 {
				t.Fatalf("Channel %s: negative sample %f at %d", models.Channel(c), v, i)
			}
		}
	}
}

func TestProcessSet(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, true)

	res, err := NewProcessor(testParams(dir), nil).ProcessSet(1)
	if err != nil {
		t.Fatalf("ProcessSet failed: %v", err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("Expected success, got %s (%s)", res.Status, res.Reason)
	}
	if res.Name != "gast_1" || res.Index != 1 {
		t.Errorf("Unexpected set identity %s/%d", res.Name, res.Index)
	}
	checkProfiles(t, res)

	red := res.Profiles[models.Red]
	if red[0] >= red[models.ProfileLength-1] {
		t.Errorf("Red should brighten towards the posterior end: %f -> %f", red[0], red[models.ProfileLength-1])
	}

	// 20 rows of 10*x at the first and last specimen columns
	if red[0] != 20*200 || red[models.ProfileLength-1] != 20*990 {
		t.Errorf("Unexpected red end points %f, %f", red[0], red[models.ProfileLength-1])
	}

	if !res.Profiles[models.Cyan].IsZero() {
		t.Error("Cyan profile should be zero when cyan is not configured")
	}
}

func TestProcessSetFlipsOnGreenBias(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, false)

	res, err := NewProcessor(testParams(dir), nil).ProcessSet(1)
	if err != nil {
		t.Fatalf("ProcessSet failed: %v", err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("Expected success, got %s (%s)", res.Status, res.Reason)
	}

	red := res.Profiles[models.Red]
	if red[0] <= red[models.ProfileLength-1] {
		t.Errorf("Mirrored red should dim towards the posterior end: %f -> %f", red[0], red[models.ProfileLength-1])
	}
}

// createTiltedSet writes a set whose specimen is a 100x24 bar through the image
// centre, its major axis at degrees counterclockwise from horizontal. Red rises
// along the axis and the green marker sits at the dim end.
func createTiltedSet(t *testing.T, dir string, index int, degrees float64) {
	t.Helper()
	const size = 160
	name := models.SetName("gast", index)

	theta := degrees * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	axial := func(x, y int) (u, v float64) {
		dx, dy := float64(x)-size/2, float64(y)-size/2
		return dx*cos - dy*sin, dx*sin + dy*cos
	}

	dapi := createTestImage(size, size, func(x, y int) uint16 {
		if u, v := axial(x, y); math.Abs(u) <= 50 && math.Abs(v) <= 12 {
			return 1000
		}
		return 0
	})
	red := createTestImage(size, size, func(x, y int) uint16 {
		if u, v := axial(x, y); math.Abs(u) <= 50 && math.Abs(v) <= 12 {
			return uint16(100 + 10*(u+50))
		}
		return 0
	})
	green := createTestImage(size, size, func(x, y int) uint16 {
		if u, v := axial(x, y); u >= -45 && u <= -25 && math.Abs(v) <= 8 {
			return 800
		}
		return 0
	})

	writeTIFF(t, models.ChannelFile(dir, name, "c1"), dapi)
	writeTIFF(t, models.ChannelFile(dir, name, "c2"), red)
	writeTIFF(t, models.ChannelFile(dir, name, "c3"), green)
}

func TestProcessSetTiltedSpecimen(t *testing.T) {
	for _, degrees := range []float64{30, -60} {
		t.Run(fmt.Sprintf("%g degrees", degrees), func(t *testing.T) {
			dir := t.TempDir()
			createTiltedSet(t, dir, 1, degrees)

			res, err := NewProcessor(testParams(dir), nil).ProcessSet(1)
			if err != nil {
				t.Fatalf("ProcessSet failed: %v", err)
			}
			if res.Status != models.StatusSuccess {
				t.Fatalf("Expected success, got %s (%s)", res.Status, res.Reason)
			}
			checkProfiles(t, res)

			quarter := models.ProfileLength / 4
			red := res.Profiles[models.Red]
			head, tail := stat.Mean(red[:quarter], nil), stat.Mean(red[len(red)-quarter:], nil)
			if head >= tail {
				t.Errorf("Red should rise from anterior to posterior: %f -> %f", head, tail)
			}
		})
	}
}

func TestProcessSetBlankReferenceDegrades(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, true)
	blank := createTestImage(testWidth, testHeight, func(x, y int) uint16 { return 0 })
	writeTIFF(t, models.ChannelFile(dir, "gast_1", "c1"), blank)

	res, err := NewProcessor(testParams(dir), nil).ProcessSet(1)
	if err != nil {
		t.Fatalf("Blank reference should not be an error: %v", err)
	}
	if res.Status != models.StatusDegraded {
		t.Fatalf("Expected degraded set, got %s", res.Status)
	}
	checkProfiles(t, res)
	for c, p := range res.Profiles {
		if !p.IsZero() {
			t.Errorf("Channel %s should be zero", models.Channel(c))
		}
	}
}

func TestProcessSetMissingFiles(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, true)

	params := testParams(dir)
	params.Channels[models.Cyan] = "c4"

	obs := newCountingObserver()
	p := NewProcessor(params, nil)
	p.SetObserver(obs)

	res, err := p.ProcessSet(1)
	if err != nil {
		t.Fatalf("Missing cyan file should not be an error: %v", err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("Expected success, got %s (%s)", res.Status, res.Reason)
	}
	if !res.Profiles[models.Cyan].IsZero() {
		t.Error("Placeholder cyan should give a zero profile")
	}
	if len(obs.missing) != 1 || obs.missing[0] != models.Cyan {
		t.Errorf("Expected one missing cyan file, got %v", obs.missing)
	}
	if obs.processed[models.StatusSuccess] != 1 {
		t.Errorf("Expected one successful set, got %v", obs.processed)
	}

	// Without a green image there is no marker to register against
	if err := os.Remove(models.ChannelFile(dir, "gast_1", "c3")); err != nil {
		t.Fatal(err)
	}
	res, err = p.ProcessSet(1)
	if err != nil {
		t.Fatalf("Missing green file should not be an error: %v", err)
	}
	if res.Status != models.StatusDegraded {
		t.Errorf("Expected degraded set without green, got %s", res.Status)
	}
}

func TestProcessAll(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, true)
	createTestSet(t, dir, 2, false)
	createTestSet(t, dir, 3, true)
	writeTIFF(t, models.ChannelFile(dir, "gast_3", "c1"), createTestImage(testWidth, testHeight, func(x, y int) uint16 { return 0 }))

	results, err := NewProcessor(testParams(dir), nil).ProcessAll(3)
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if results.NumSets() != 3 {
		t.Fatalf("Expected 3 sets, got %d", results.NumSets())
	}
	for i, s := range results.Sets {
		if s.Index != i+1 {
			t.Errorf("Row %d holds set %d", i, s.Index)
		}
	}
	if degraded := results.DegradedSets(); len(degraded) != 1 || degraded[0] != "gast_3" {
		t.Errorf("Expected gast_3 degraded, got %v", degraded)
	}

	for _, c := range models.Channels {
		rows, cols := results.Matrices[c].Dims()
		if rows != 3 || cols != models.ProfileLength {
			t.Errorf("Channel %s matrix is %dx%d", c, rows, cols)
		}
	}
	if results.Matrices[models.Red].At(1, 0) != results.Sets[1].Profiles[models.Red][0] {
		t.Error("Matrix rows should follow set order")
	}
}

func TestProcessAllParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 4; i++ {
		createTestSet(t, dir, i, i%2 == 0)
	}

	sequential, err := NewProcessor(testParams(dir), nil).ProcessAll(4)
	if err != nil {
		t.Fatalf("Sequential run failed: %v", err)
	}

	params := testParams(dir)
	params.Workers = 3
	parallel, err := NewProcessor(params, nil).ProcessAll(4)
	if err != nil {
		t.Fatalf("Parallel run failed: %v", err)
	}

	for i := range sequential.Sets {
		a, b := sequential.Sets[i], parallel.Sets[i]
		if a.Name != b.Name || a.Status != b.Status {
			t.Fatalf("Row %d differs: %s/%s vs %s/%s", i, a.Name, a.Status, b.Name, b.Status)
		}
		for c := range a.Profiles {
			for j := range a.Profiles[c] {
				if a.Profiles[c][j] != b.Profiles[c][j] {
					t.Fatalf("Row %d channel %d sample %d differs", i, c, j)
				}
			}
		}
	}
}

func TestProcessAllZeroSets(t *testing.T) {
	results, err := NewProcessor(testParams(t.TempDir()), nil).ProcessAll(0)
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if results.NumSets() != 0 || results.Matrices[models.Dapi] != nil {
		t.Error("Expected an empty run")
	}
	if len(results.Rows()) != 1 {
		t.Errorf("Expected only the average row, got %d", len(results.Rows()))
	}
}

func TestProcessAllUndecodableImage(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, true)
	if err := os.WriteFile(models.ChannelFile(dir, "gast_1", "c2"), []byte("not a tiff"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewProcessor(testParams(dir), nil).ProcessAll(1); err == nil {
		t.Fatal("Expected an error for an undecodable image")
	}
}

func TestSaveIntermediaryResults(t *testing.T) {
	dir := t.TempDir()
	createTestSet(t, dir, 1, true)

	params := testParams(dir)
	params.SaveIntermediaryResults = true
	params.IntermediaryDir = filepath.Join(t.TempDir(), "intermediary")

	if _, err := NewProcessor(params, nil).ProcessAll(1); err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(params.IntermediaryDir, "gast_1_aligned.png")); err != nil {
		t.Errorf("Expected aligned montage: %v", err)
	}
}
