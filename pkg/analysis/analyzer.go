// Package analysis runs the complete pipeline for one profile: scanning,
// quantification, normalization, rendering and export of the results table.
package analysis

import (
	"fmt"
	"path"
	"time"

	"github.com/pkg/errors"

	"gastruloid/internal/logger"
	"gastruloid/internal/models"
	"gastruloid/pkg/fileaccess"
	"gastruloid/pkg/metrics"
	"gastruloid/pkg/normalize"
	"gastruloid/pkg/quantification"
	"gastruloid/pkg/scanner"
	"gastruloid/pkg/visualization"
)

const component = "analysis"

// TimestampFormat is appended to the profile name to build the results directory
const TimestampFormat = "20060102_150405"

// ResultsFile is the exported results table inside each results directory
const ResultsFile = "results.json"

// Params holds the configuration of one run
type Params struct {
	Profile *models.Profile

	// MinFileSize is the size in bytes a file must exceed to count as image data
	MinFileSize int64

	ClosingRadius int
	Workers       int

	SaveIntermediaryResults bool
	IntermediaryDir         string

	// OutputRoot is the FileAccess root: a directory, or a bucket for S3
	OutputRoot string

	// OutputPrefix is prepended to the results directory name within the root
	OutputPrefix string

	// MetricsFile, when set, receives the run metrics in Prometheus text format
	MetricsFile string
}

// Report summarizes a completed run
type Report struct {
	// OutputDir is the results directory relative to the output root.
	// It is empty when the run found no sets.
	OutputDir string

	NumSets  int
	Degraded []string

	// Files lists every written output relative to the output root
	Files []string
}

// Analyzer runs the pipeline for one profile
type Analyzer struct {
	params  *Params
	fa      fileaccess.FileAccess
	log     logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewAnalyzer creates an analyzer writing its outputs through fa
func NewAnalyzer(params *Params, fa fileaccess.FileAccess, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NullLogger{}
	}
	return &Analyzer{
		params:  params,
		fa:      fa,
		log:     log,
		metrics: metrics.NewRecorder(),
		now:     time.Now,
	}
}

// SetClock replaces the clock used to name the results directory
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// Metrics returns the recorder holding this run's measurements
func (a *Analyzer) Metrics() *metrics.Recorder {
	return a.metrics
}

// Process runs the pipeline. Configuration and missing-directory errors are
// returned before anything is written.
func (a *Analyzer) Process() (*Report, error) {
	profile := a.params.Profile
	if profile == nil {
		return nil, &models.ConfigurationError{Field: "profile", Reason: "is required"}
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	// Step 1: Validate the input directory and count sets
	numSets, files, err := scanner.Scan(profile.Directory, profile.Channels, a.params.MinFileSize, a.log)
	if err != nil {
		return nil, err
	}
	if numSets == 0 {
		a.log.Warning(component, "no image sets found, nothing to do", map[string]interface{}{
			"directory": profile.Directory,
			"files":     len(files),
		})
		return &Report{}, nil
	}

	// Step 2: Quantify every set
	a.log.Info(component, "processing image sets", map[string]interface{}{
		"profile": profile.Name,
		"sets":    numSets,
		"workers": a.params.Workers,
	})
	processor := quantification.NewProcessor(&quantification.Params{
		Directory:               profile.Directory,
		BaseName:                profile.BaseName,
		Channels:                profile.ChannelMap(),
		MinBlobSize:             profile.MinBlobSize,
		ClosingRadius:           a.params.ClosingRadius,
		Workers:                 a.params.Workers,
		SaveIntermediaryResults: a.params.SaveIntermediaryResults,
		IntermediaryDir:         a.params.IntermediaryDir,
	}, a.log)
	processor.SetObserver(a.metrics)

	results, err := processor.ProcessAll(numSets)
	if err != nil {
		return nil, errors.Wrap(err, "failed to process image sets")
	}

	// Step 3: Normalize
	normalize.Normalize(results)
	a.metrics.ChannelMaxima(results.Maxima)

	// Step 4: Render and export
	outputDir := path.Join(a.params.OutputPrefix, fmt.Sprintf("%s_%s", profile.Name, a.now().Format(TimestampFormat)))

	renderer := visualization.NewRenderer(a.fa, a.params.OutputRoot, a.log)
	if err := renderer.Render(results, profile.MarkerMap(), outputDir); err != nil {
		return nil, errors.Wrap(err, "failed to render results")
	}

	tablePath := path.Join(outputDir, ResultsFile)
	if err := a.fa.WriteJSON(a.params.OutputRoot, tablePath, ExportTable(profile.Name, results)); err != nil {
		return nil, errors.Wrap(err, "failed to write results table")
	}

	report := &Report{
		OutputDir: outputDir,
		NumSets:   results.NumSets(),
		Degraded:  results.DegradedSets(),
		Files:     append(renderer.Written(), tablePath),
	}

	// Step 5: Metrics
	if a.params.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.params.MetricsFile); err != nil {
			a.log.Error(component, err, map[string]interface{}{"file": a.params.MetricsFile})
		}
	}

	a.log.Info(component, "analysis complete", map[string]interface{}{
		"output":   outputDir,
		"sets":     report.NumSets,
		"degraded": len(report.Degraded),
	})
	return report, nil
}
