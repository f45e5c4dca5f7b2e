// Package visualization renders intensity profiles as PNG line plots and builds
// diagnostic montages of aligned channel images.
package visualization

import (
	"bytes"
	"fmt"
	"path"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"gastruloid/internal/logger"
	"gastruloid/internal/models"
	"gastruloid/pkg/fileaccess"
)

const component = "renderer"

// Axis labels shared by every figure
const (
	XAxisLabel = "Relative Length (Anterior to Posterior)"
	YAxisLabel = "Normalized Intensity"
)

const (
	figureWidth  = 1000
	figureHeight = 600
)

// channelColors is the stroke colour of each channel role
var channelColors = [models.NumChannels]drawing.Color{
	models.Dapi:  {R: 30, G: 60, B: 220, A: 255},
	models.Red:   {R: 220, G: 30, B: 30, A: 255},
	models.Green: {R: 20, G: 160, B: 40, A: 255},
	models.Cyan:  {R: 0, G: 180, B: 190, A: 255},
}

// individualColor draws the per-set curves behind a cohort average
var individualColor = drawing.Color{R: 150, G: 150, B: 150, A: 80}

// Renderer writes result figures through a FileAccess
type Renderer struct {
	fa      fileaccess.FileAccess
	root    string
	log     logger.Logger
	axis    []float64
	written []string
}

// NewRenderer creates a renderer writing below root (a directory, or a bucket for S3)
func NewRenderer(fa fileaccess.FileAccess, root string, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.NullLogger{}
	}
	return &Renderer{
		fa:   fa,
		root: root,
		log:  log,
		axis: floats.Span(make([]float64, models.ProfileLength), 0, 1),
	}
}

// Written returns the paths, relative to the root, of every figure rendered so far
func (r *Renderer) Written() []string {
	return r.written
}

// Render draws one overlay per set with any signal and one cohort figure per
// plotted channel into outputDir. Cyan is only drawn when a cyan marker is set.
func (r *Renderer) Render(results *models.Results, markers models.MarkerMap, outputDir string) error {
	if err := r.fa.MakeDir(r.root, outputDir); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if len(results.Sets) == 0 {
		return nil
	}

	for _, set := range results.Sets {
		if !hasSignal(set.Profiles, markers) {
			r.log.Debug(component, "skipping set without signal", map[string]interface{}{"set": set.Name})
			continue
		}
		if err := r.renderSet(set, markers, outputDir); err != nil {
			return err
		}
	}

	for _, c := range plottedChannels(markers) {
		if err := r.renderCohort(results, c, markers, outputDir); err != nil {
			return err
		}
	}

	return nil
}

// plottedChannels lists the channels that get a cohort figure
func plottedChannels(markers models.MarkerMap) []models.Channel {
	channels := []models.Channel{models.Dapi, models.Red, models.Green}
	if markers.Has(models.Cyan) {
		channels = append(channels, models.Cyan)
	}
	return channels
}

func hasSignal(profiles models.ChannelProfiles, markers models.MarkerMap) bool {
	for _, c := range plottedChannels(markers) {
		if !profiles[c].IsZero() {
			return true
		}
	}
	return false
}

func (r *Renderer) renderSet(set models.SetResult, markers models.MarkerMap, outputDir string) error {
	ch := newFigure(set.Name, drawing.ColorBlack, r.setSeries(set, markers))
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return r.save(ch, path.Join(outputDir, fmt.Sprintf("set_%d.png", set.Index)))
}

// setSeries builds the overlay curves of one set. Cyan is drawn only when a cyan
// marker is configured and the set carries cyan signal.
func (r *Renderer) setSeries(set models.SetResult, markers models.MarkerMap) []chart.Series {
	var series []chart.Series
	for _, c := range []models.Channel{models.Dapi, models.Red, models.Green} {
		series = append(series, r.curve(markers.Label(c), set.Profiles[c], channelColors[c], 2))
	}
	if markers.Has(models.Cyan) && !set.Profiles[models.Cyan].IsZero() {
		series = append(series, r.curve(markers.Label(models.Cyan), set.Profiles[models.Cyan], channelColors[models.Cyan], 2))
	}
	return series
}

func (r *Renderer) renderCohort(results *models.Results, c models.Channel, markers models.MarkerMap, outputDir string) error {
	series := make([]chart.Series, 0, len(results.Sets)+1)
	for _, set := range results.Sets {
		series = append(series, r.curve("", set.Profiles[c], individualColor, 1))
	}
	series = append(series, r.curve(markers.Label(c), results.Average[c], channelColors[c], 4))

	ch := newFigure(markers.Label(c), channelColors[c], series)

	return r.save(ch, path.Join(outputDir, fmt.Sprintf("average_%s.png", c)))
}

func (r *Renderer) curve(name string, profile models.IntensityProfile, color drawing.Color, width float64) chart.ContinuousSeries {
	ys := []float64(profile)
	if len(ys) != len(r.axis) {
		ys = models.NewZeroProfile()
	}
	return chart.ContinuousSeries{
		Name:    name,
		XValues: r.axis,
		YValues: ys,
		Style:   chart.Style{StrokeColor: color, StrokeWidth: width},
	}
}

func newFigure(title string, titleColor drawing.Color, series []chart.Series) chart.Chart {
	return chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: titleColor, FontSize: 14},
		Width:      figureWidth,
		Height:     figureHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  XAxisLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		YAxis: chart.YAxis{
			Name:  YAxisLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: series,
	}
}

// save renders into a buffer owned by this call, so nothing outlives a failed render
func (r *Renderer) save(ch chart.Chart, name string) error {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return errors.Wrapf(err, "failed to render %s", name)
	}
	if err := r.fa.WriteObject(r.root, name, buf.Bytes()); err != nil {
		return errors.Wrapf(err, "failed to write %s", name)
	}

	r.written = append(r.written, name)
	r.log.Debug(component, "figure written", map[string]interface{}{"file": name})
	return nil
}
